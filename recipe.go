package recipe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloud8421/recipe/internal/runtime"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/cloud8421/recipe/pkg/registry"
)

// Engine is the high-level entry point for the recipe library.
// It wraps the internal executor and provides a simplified API for consumers.
type Engine struct {
	executor  *runtime.Executor
	source    ports.Loader
	registry  *registry.Registry
	store     ports.RunStore
	ids       ports.IDSource
	observer  domain.Observer
	telemetry bool
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver sets the engine-default observer, used by runs that do
// not carry one of their own.
func WithObserver(obs domain.Observer) Option {
	return func(e *Engine) {
		e.observer = obs
	}
}

// WithTelemetry flips the engine-default telemetry toggle. Individual
// runs can still enable or disable it per call.
func WithTelemetry(enabled bool) Option {
	return func(e *Engine) {
		e.telemetry = enabled
	}
}

// WithIDSource replaces the correlation id generator.
func WithIDSource(ids ports.IDSource) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithStore records every terminal run outcome to the given store.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithSource injects a recipe catalog, enabling RunNamed and Recipes.
func WithSource(source ports.Loader) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithRegistry injects a pre-populated step registry, bypassing the
// default empty one.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// New initializes a new recipe Engine. Without options it reproduces
// the hard defaults: telemetry off, logging observer, generated
// correlation ids, no catalog and no run store.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}

	// Ensure logger is initialized so we don't pass nil to the
	// executor, which would overwrite its default.
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.registry == nil {
		e.registry = registry.NewRegistry()
	}

	execOpts := []runtime.Option{
		runtime.WithLogger(e.logger),
		runtime.WithStore(e.store),
		runtime.WithDefaults(domain.RunOptions{
			Telemetry: e.telemetry,
			Observer:  e.observer,
		}),
	}
	if e.ids != nil {
		execOpts = append(execOpts, runtime.WithIDSource(e.ids))
	}
	e.executor = runtime.NewExecutor(execOpts...)

	return e
}

var _ ports.Runner = (*Engine)(nil)

// Run executes a definition over an initial state, producing exactly one
// terminal outcome: on success the value of the definition's
// HandleResult, on the first step failure the value of its HandleError.
func (e *Engine) Run(ctx context.Context, def domain.Definition, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error) {
	return e.executor.Run(ctx, def, initial, domain.NewRunCall(opts...))
}

// RunNamed loads a manifest from the catalog, binds its steps against
// the registry and runs it. A manifest that enables telemetry acts as a
// stored default; call options still win.
func (e *Engine) RunNamed(ctx context.Context, name string, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error) {
	if e.source == nil {
		return nil, fmt.Errorf("no recipe source configured")
	}

	m, err := e.source.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	def, err := e.registry.Bind(m)
	if err != nil {
		return nil, err
	}

	if m.Telemetry {
		opts = append([]domain.RunOption{domain.WithTelemetry(true)}, opts...)
	}
	return e.Run(ctx, def, initial, opts...)
}

// Validate gates a definition ahead of any run: a step list must be
// declared and every declared name must resolve to an implementation.
func (e *Engine) Validate(def domain.Definition) error {
	return runtime.Validate(def)
}

// Recipes lists the manifests available in the catalog.
func (e *Engine) Recipes(ctx context.Context) ([]*domain.Manifest, error) {
	if e.source == nil {
		return nil, fmt.Errorf("no recipe source configured")
	}
	return e.source.List(ctx)
}

// Recipe loads a single manifest from the catalog by name. Returns
// domain.ErrRecipeNotFound if the catalog has no such entry.
func (e *Engine) Recipe(ctx context.Context, name string) (*domain.Manifest, error) {
	if e.source == nil {
		return nil, fmt.Errorf("no recipe source configured")
	}
	return e.source.Load(ctx, name)
}

// Registry returns the step registry backing RunNamed.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Source returns the recipe catalog used by the engine, if any.
func (e *Engine) Source() ports.Loader {
	return e.source
}

// Watch returns a channel that signals when the underlying catalog
// changes. Returns an error if the source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current recipe source does not support watching")
}

// Run executes a definition with the hard defaults. It is shorthand for
// New().Run(...).
func Run(ctx context.Context, def domain.Definition, initial *domain.State, opts ...domain.RunOption) (*domain.Result, error) {
	return New().Run(ctx, def, initial, opts...)
}

// Validate checks a definition with the hard defaults. It is shorthand
// for New().Validate(def).
func Validate(def domain.Definition) error {
	return runtime.Validate(def)
}
