// SPDX-License-Identifier: MPL-2.0

// Package introspect learns the command set of an external console
// application by running it with a machine-readable listing flag.
//
// Listings are memoized in a cache.Store under a key derived from the console
// invocation and the project root, so repeated discovery passes within the
// validity window do not spawn the console again.
package introspect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"castor-cli/internal/cache"
)

const (
	// DefaultTTL is how long a listing stays valid.
	DefaultTTL = 24 * time.Hour

	// ListFormatFlag is appended to the console invocation.
	ListFormatFlag = "--format=json"

	keyPrefix  = "symfony-console-definitions-"
	tracerName = "castor-cli/internal/introspect"
)

type (
	// Introspector fetches console listings for one project root.
	Introspector struct {
		rootDir string
		runner  Runner
		store   cache.Store
		ttl     time.Duration
		logger  *slog.Logger
		tracer  trace.Tracer
	}

	// IntrospectorOption configures an Introspector.
	IntrospectorOption func(*Introspector)
)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) IntrospectorOption {
	return func(i *Introspector) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithLogger sets the logger for cache hit and miss diagnostics.
func WithLogger(l *slog.Logger) IntrospectorOption {
	return func(i *Introspector) {
		i.logger = l
	}
}

// WithTracer sets the tracer used for introspection spans.
func WithTracer(t trace.Tracer) IntrospectorOption {
	return func(i *Introspector) {
		i.tracer = t
	}
}

// New creates an Introspector for rootDir.
func New(rootDir string, runner Runner, store cache.Store, opts ...IntrospectorOption) *Introspector {
	i := &Introspector{
		rootDir: rootDir,
		runner:  runner,
		store:   store,
		ttl:     DefaultTTL,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// CacheKey returns the cache key for a console invocation under rootDir: the
// hex SHA-256 of the prefix, the console arguments and rootDir joined by "-".
func CacheKey(console []string, rootDir string) string {
	parts := make([]string, 0, len(console)+2)
	parts = append(parts, keyPrefix)
	parts = append(parts, console...)
	parts = append(parts, rootDir)
	sum := sha256.Sum256([]byte(strings.Join(parts, "-")))
	return hex.EncodeToString(sum[:])
}

// Definitions returns the listing of the console invoked as console. Within the
// TTL the cached listing is returned without running the console. A failed run
// is never served from a stale entry.
func (i *Introspector) Definitions(ctx context.Context, console []string) (*Listing, error) {
	key := CacheKey(console, i.rootDir)
	ctx, span := i.tracer.Start(ctx, "introspect.Definitions", trace.WithAttributes(
		attribute.String("castor.console", strings.Join(console, " ")),
		attribute.String("castor.cache_key", key),
	))
	defer span.End()

	miss := false
	data, err := i.store.GetOrCompute(ctx, key, i.ttl, func(ctx context.Context) ([]byte, error) {
		miss = true
		return i.fetch(ctx, console)
	})
	span.SetAttributes(attribute.Bool("castor.cache_hit", !miss))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	i.logger.Debug("console listing", "console", console, "cache_hit", !miss)

	var listing Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("decode cached listing %s: %w", key, err)
	}
	return &listing, nil
}

// fetch runs the console, validates its output and returns the listing in
// canonical JSON form.
func (i *Introspector) fetch(ctx context.Context, console []string) ([]byte, error) {
	argv := append(slices.Clone(console), ListFormatFlag)
	out, err := i.runner.Output(ctx, i.rootDir, argv)
	if err != nil {
		return nil, err
	}
	listing, err := ParseListing(out, strings.Join(argv, " "))
	if err != nil {
		return nil, err
	}
	return json.Marshal(listing)
}
