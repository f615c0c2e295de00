// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"castor-cli/internal/cache"
	"castor-cli/internal/descriptor"
	"castor-cli/internal/host"
	"castor-cli/internal/introspect"
	"castor-cli/internal/loader"
	"castor-cli/internal/resolver"
)

const tracerName = "castor-cli/internal/discovery"

type (
	// Discoverer runs discovery passes against one host runtime. Passes must
	// not run concurrently: each load is diffed against the runtime state the
	// previous load left behind.
	Discoverer struct {
		rt             host.Runtime
		session        *loader.Session
		store          cache.Store
		runner         introspect.Runner
		ttl            time.Duration
		defaultConsole []string
		loaderOpts     []loader.Option
		logger         *slog.Logger
		tracer         trace.Tracer
	}

	// Option configures a Discoverer.
	Option func(*Discoverer)
)

// WithSession records loaded modules in session instead of a private one.
func WithSession(session *loader.Session) Option {
	return func(d *Discoverer) {
		d.session = session
	}
}

// WithCache sets the store used for console listings.
func WithCache(store cache.Store) Option {
	return func(d *Discoverer) {
		d.store = store
	}
}

// WithRunner sets how console commands are executed.
func WithRunner(runner introspect.Runner) Option {
	return func(d *Discoverer) {
		d.runner = runner
	}
}

// WithCacheTTL sets how long console listings stay valid.
func WithCacheTTL(ttl time.Duration) Option {
	return func(d *Discoverer) {
		d.ttl = ttl
	}
}

// WithDefaultConsole sets the console used by symfony tasks that name none.
func WithDefaultConsole(argv []string) Option {
	return func(d *Discoverer) {
		d.defaultConsole = argv
	}
}

// WithLoaderOptions forwards options to the module loader of every pass.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(d *Discoverer) {
		d.loaderOpts = append(d.loaderOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// WithTracer sets the tracer for pass spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Discoverer) {
		d.tracer = tracer
	}
}

// New creates a Discoverer over rt.
func New(rt host.Runtime, opts ...Option) *Discoverer {
	d := &Discoverer{
		rt:      rt,
		session: loader.NewSession(),
		runner:  introspect.ExecRunner{},
		ttl:     introspect.DefaultTTL,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.store == nil {
		d.store = cache.NewMemory()
	}
	return d
}

// Session returns the session recording every module loaded by this
// Discoverer.
func (d *Discoverer) Session() *loader.Session {
	return d.session
}

// Discover returns the descriptors of rootDir in module load order. The pass
// runs as the sequence is consumed; stopping early stops loading. The first
// error is yielded and ends the sequence.
func (d *Discoverer) Discover(ctx context.Context, rootDir string) iter.Seq2[descriptor.Descriptor, error] {
	return func(yield func(descriptor.Descriptor, error) bool) {
		root, err := filepath.Abs(rootDir)
		if err != nil {
			yield(nil, fmt.Errorf("resolve root %s: %w", rootDir, err))
			return
		}

		passID := uuid.NewString()
		ctx, span := d.tracer.Start(ctx, "discovery.Discover", trace.WithAttributes(
			attribute.String("castor.root_dir", root),
			attribute.String("castor.pass_id", passID),
		))
		defer span.End()

		logger := d.logger.With("pass", passID)
		logger.Debug("discovery started", "root", root)

		intro := introspect.New(root, d.runner, d.store,
			introspect.WithTTL(d.ttl), introspect.WithLogger(logger), introspect.WithTracer(d.tracer))
		res := resolver.New(d.rt, intro, resolver.WithDefaultConsole(d.defaultConsole))
		l := loader.New(d.rt, d.session, append([]loader.Option{loader.WithLogger(logger)}, d.loaderOpts...)...)

		count := 0
		for decl, err := range l.LoadAll(ctx, root) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield(nil, err)
				return
			}

			descs, err := res.Resolve(ctx, decl)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield(nil, err)
				return
			}
			for _, desc := range descs {
				count++
				if !yield(desc, nil) {
					span.SetAttributes(attribute.Int("castor.descriptors", count))
					return
				}
			}
		}

		span.SetAttributes(attribute.Int("castor.descriptors", count))
		logger.Debug("discovery finished", "descriptors", count)
	}
}
