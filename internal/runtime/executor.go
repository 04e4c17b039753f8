package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cloud8421/recipe/internal/logging"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/ports"
	"github.com/cloud8421/recipe/pkg/telemetry"
)

// Executor drives a definition's steps over a state and produces the
// single terminal outcome per run.
type Executor struct {
	logger   *slog.Logger
	ids      ports.IDSource
	store    ports.RunStore
	defaults domain.RunOptions
}

// Option configures the executor.
type Option func(*Executor)

// WithLogger sets the structured logger used for engine diagnostics and
// the built-in observer.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Executor) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// WithIDSource replaces the correlation id generator.
func WithIDSource(ids ports.IDSource) Option {
	return func(x *Executor) {
		if ids != nil {
			x.ids = ids
		}
	}
}

// WithStore records terminal run outcomes to the given store.
func WithStore(store ports.RunStore) Option {
	return func(x *Executor) {
		x.store = store
	}
}

// WithDefaults sets the engine-level run option defaults. They occupy
// the lowest slot of the merge chain: call options win over state
// options, which win over these.
func WithDefaults(defaults domain.RunOptions) Option {
	return func(x *Executor) {
		x.defaults = defaults
	}
}

// uuidSource is the default IDSource: random UUIDs rendered in the
// canonical hyphenated form.
type uuidSource struct{}

func (uuidSource) NewID() string { return uuid.NewString() }

// NewExecutor creates an executor. Without options it reproduces the
// hard defaults: telemetry off, logging observer, generated ids, no
// record store.
func NewExecutor(opts ...Option) *Executor {
	x := &Executor{
		logger: logging.NewNop(),
		ids:    uuidSource{},
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.defaults.Observer == nil {
		x.defaults.Observer = telemetry.NewLogObserver(x.logger)
	}
	return x
}

// Run executes def's steps over initial, left to right, threading the
// state each step returns into the next. The first failure stops the
// run and routes through def.HandleError; full success routes through
// def.HandleResult. Exactly one of the two happens.
func (x *Executor) Run(ctx context.Context, def domain.Definition, initial *domain.State, call *domain.RunCall) (*domain.Result, error) {
	if def == nil {
		return nil, domain.ErrNoRecipe
	}
	if initial == nil {
		initial = domain.NewState()
	}

	steps := def.Steps()
	opts := call.Resolve(initial.Options, x.defaults)
	if opts.CorrelationID == "" {
		opts.CorrelationID = x.ids.NewID()
	}

	st := initial.ForRun(def.Name(), opts.CorrelationID, opts)
	started := time.Now()

	x.logger.DebugContext(ctx, "run starting",
		"recipe", st.Recipe,
		"correlation_id", st.CorrelationID,
		"steps", len(steps),
		"telemetry", opts.Telemetry,
	)

	x.emitStart(ctx, opts, st)

	for _, name := range steps {
		fn, ok := def.Step(name)
		if !ok {
			// The validator gate prevents this for definitions built
			// through the supported paths; an unchecked definition
			// still fails like any other step.
			cause := &domain.MissingStepsError{Recipe: def.Name(), Steps: []string{name}}
			x.emitError(ctx, opts, name, cause, st, 0)
			return x.fail(ctx, def, name, cause, st, started)
		}

		stepStart := time.Now()
		next, err := fn(ctx, st)
		elapsed := time.Since(stepStart)

		if err != nil {
			x.emitError(ctx, opts, name, err, st, elapsed)
			return x.fail(ctx, def, name, err, st, started)
		}
		if next == nil {
			cause := &domain.AmbiguousResultError{Step: name}
			x.emitError(ctx, opts, name, cause, st, elapsed)
			return x.fail(ctx, def, name, cause, st, started)
		}

		x.emitSuccess(ctx, opts, name, next, elapsed)
		st = next
	}

	x.emitFinish(ctx, opts, st)
	x.record(ctx, &domain.RunRecord{
		CorrelationID: st.CorrelationID,
		Recipe:        st.Recipe,
		Status:        domain.RunSucceeded,
		Values:        st.Values,
		StartedAt:     started,
		FinishedAt:    time.Now(),
	})

	return &domain.Result{CorrelationID: st.CorrelationID, Value: def.HandleResult(st)}, nil
}

// fail routes the outcome through the definition's error handler. The
// handler's return value reaches the caller verbatim; when a handler
// swallows the failure by returning nil, the step's own error is used so
// a failed run always yields a non-nil error.
func (x *Executor) fail(ctx context.Context, def domain.Definition, step string, cause error, st *domain.State, started time.Time) (*domain.Result, error) {
	runErr := def.HandleError(step, cause, st)
	if runErr == nil {
		runErr = cause
	}

	x.record(ctx, &domain.RunRecord{
		CorrelationID: st.CorrelationID,
		Recipe:        st.Recipe,
		Status:        domain.RunFailed,
		Values:        st.Values,
		FailedStep:    step,
		Error:         runErr.Error(),
		StartedAt:     started,
		FinishedAt:    time.Now(),
	})

	return nil, runErr
}

func (x *Executor) record(ctx context.Context, rec *domain.RunRecord) {
	if x.store == nil {
		return
	}
	if err := x.store.Save(ctx, rec); err != nil {
		x.logger.WarnContext(ctx, "failed to record run outcome",
			"correlation_id", rec.CorrelationID,
			"recipe", rec.Recipe,
			"error", err,
		)
	}
}

// Observer dispatch. Callbacks are skipped entirely when telemetry is
// off and are isolated from the run: a panicking observer is recovered
// and logged, never altering the outcome.

func (x *Executor) emitStart(ctx context.Context, opts domain.RunOptions, st *domain.State) {
	if !opts.Telemetry || opts.Observer == nil {
		return
	}
	defer x.recoverObserver(ctx, domain.EventRunStarted, st)
	opts.Observer.OnStart(ctx, st)
}

func (x *Executor) emitFinish(ctx context.Context, opts domain.RunOptions, st *domain.State) {
	if !opts.Telemetry || opts.Observer == nil {
		return
	}
	defer x.recoverObserver(ctx, domain.EventRunFinished, st)
	opts.Observer.OnFinish(ctx, st)
}

func (x *Executor) emitSuccess(ctx context.Context, opts domain.RunOptions, step string, st *domain.State, elapsed time.Duration) {
	if !opts.Telemetry || opts.Observer == nil {
		return
	}
	defer x.recoverObserver(ctx, domain.EventStepSucceeded, st)
	opts.Observer.OnSuccess(ctx, step, st, elapsed)
}

func (x *Executor) emitError(ctx context.Context, opts domain.RunOptions, step string, err error, st *domain.State, elapsed time.Duration) {
	if !opts.Telemetry || opts.Observer == nil {
		return
	}
	defer x.recoverObserver(ctx, domain.EventStepFailed, st)
	opts.Observer.OnError(ctx, step, err, st, elapsed)
}

func (x *Executor) recoverObserver(ctx context.Context, event domain.EventType, st *domain.State) {
	if r := recover(); r != nil {
		x.logger.ErrorContext(ctx, "observer panicked",
			"event", string(event),
			"recipe", st.Recipe,
			"correlation_id", st.CorrelationID,
			"panic", r,
		)
	}
}
