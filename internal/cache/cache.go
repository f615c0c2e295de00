// SPDX-License-Identifier: MPL-2.0

// Package cache provides keyed get-or-compute stores with per-entry expiry.
//
// Two backends exist: Memory keeps entries for the process lifetime and SQLite
// persists them across runs. Both store at most one value per key and collapse
// concurrent computations of the same key into a single call.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidTTL is returned when a non-positive expiry is requested.
var ErrInvalidTTL = errors.New("cache ttl must be positive")

type (
	// ComputeFunc produces the value for a missing or expired key.
	ComputeFunc func(ctx context.Context) ([]byte, error)

	// Store is a keyed cache with get-or-compute semantics.
	Store interface {
		// GetOrCompute returns the live value for key, or calls compute, stores its
		// result for ttl and returns it. A compute error is returned as-is and
		// nothing is stored.
		GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error)
		// Delete removes a key.
		Delete(ctx context.Context, key string) error
		// Clear removes every entry.
		Clear(ctx context.Context) error
		// Close releases resources held by the store.
		Close() error
	}

	// Clock returns the current time. time.Now satisfies it.
	Clock func() time.Time

	// Option configures a store.
	Option func(*options)

	options struct {
		now Clock
	}
)

// WithClock overrides the time source used for expiry.
func WithClock(now Clock) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
