package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cloud8421/recipe/pkg/domain"
)

// PrometheusObserver exports run and step metrics. Series are labeled by
// recipe and step name, never by correlation id, so cardinality stays
// bounded.
type PrometheusObserver struct {
	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
}

var _ domain.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the recipe metrics with the given
// registry. A nil registry falls back to prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusObserver{
		runsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe",
			Name:      "runs_started_total",
			Help:      "Runs that reached the start callback.",
		}, []string{"recipe"}),
		runsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe",
			Name:      "runs_finished_total",
			Help:      "Terminal run outcomes by status.",
		}, []string{"recipe", "status"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recipe",
			Name:      "step_duration_seconds",
			Help:      "Per-step execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"recipe", "step"}),
		stepFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe",
			Name:      "step_failures_total",
			Help:      "Steps that returned a failure.",
		}, []string{"recipe", "step"}),
	}
}

func (o *PrometheusObserver) OnStart(_ context.Context, st *domain.State) {
	o.runsStarted.WithLabelValues(st.Recipe).Inc()
}

func (o *PrometheusObserver) OnFinish(_ context.Context, st *domain.State) {
	o.runsFinished.WithLabelValues(st.Recipe, string(domain.RunSucceeded)).Inc()
}

func (o *PrometheusObserver) OnSuccess(_ context.Context, step string, st *domain.State, elapsed time.Duration) {
	o.stepDuration.WithLabelValues(st.Recipe, step).Observe(elapsed.Seconds())
}

// OnError also closes out the run: a run has at most one failing step,
// so the failed-run counter is incremented here rather than in a finish
// callback that never fires on this path.
func (o *PrometheusObserver) OnError(_ context.Context, step string, _ error, st *domain.State, elapsed time.Duration) {
	o.stepDuration.WithLabelValues(st.Recipe, step).Observe(elapsed.Seconds())
	o.stepFailures.WithLabelValues(st.Recipe, step).Inc()
	o.runsFinished.WithLabelValues(st.Recipe, string(domain.RunFailed)).Inc()
}
