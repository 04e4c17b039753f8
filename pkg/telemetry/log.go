package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloud8421/recipe/pkg/domain"
)

// LogObserver is the built-in observer. It renders each lifecycle
// callback as one structured log line carrying the recipe identity, the
// event kind, the correlation id, the step name and elapsed microseconds
// for step-scoped events, and the accumulated values. Step failures are
// emitted at Error level, everything else at Info.
type LogObserver struct {
	logger *slog.Logger
}

var _ domain.Observer = (*LogObserver)(nil)

// NewLogObserver creates the built-in logging observer.
// A nil logger falls back to slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

// OnStart logs the run start with the initial values.
func (o *LogObserver) OnStart(ctx context.Context, st *domain.State) {
	o.logger.InfoContext(ctx, "run started",
		"event", string(domain.EventRunStarted),
		"recipe", st.Recipe,
		"correlation_id", st.CorrelationID,
		"values", st.Values,
	)
}

// OnFinish logs the successful completion with the final values.
func (o *LogObserver) OnFinish(ctx context.Context, st *domain.State) {
	o.logger.InfoContext(ctx, "run finished",
		"event", string(domain.EventRunFinished),
		"recipe", st.Recipe,
		"correlation_id", st.CorrelationID,
		"values", st.Values,
	)
}

// OnSuccess logs one completed step with its elapsed time.
func (o *LogObserver) OnSuccess(ctx context.Context, step string, st *domain.State, elapsed time.Duration) {
	o.logger.InfoContext(ctx, "step succeeded",
		"event", string(domain.EventStepSucceeded),
		"recipe", st.Recipe,
		"correlation_id", st.CorrelationID,
		"step", step,
		"elapsed_us", elapsed.Microseconds(),
		"values", st.Values,
	)
}

// OnError logs the failing step at Error level.
func (o *LogObserver) OnError(ctx context.Context, step string, err error, st *domain.State, elapsed time.Duration) {
	o.logger.ErrorContext(ctx, "step failed",
		"event", string(domain.EventStepFailed),
		"recipe", st.Recipe,
		"correlation_id", st.CorrelationID,
		"step", step,
		"elapsed_us", elapsed.Microseconds(),
		"error", err,
		"values", st.Values,
	)
}
