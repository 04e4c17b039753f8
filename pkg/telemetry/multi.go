package telemetry

import (
	"context"
	"time"

	"github.com/cloud8421/recipe/pkg/domain"
)

// Multi fans each callback out to every observer, in order.
type Multi []domain.Observer

var _ domain.Observer = Multi(nil)

// NewMulti combines observers into a single one.
func NewMulti(observers ...domain.Observer) Multi {
	return Multi(observers)
}

func (m Multi) OnStart(ctx context.Context, st *domain.State) {
	for _, o := range m {
		o.OnStart(ctx, st)
	}
}

func (m Multi) OnFinish(ctx context.Context, st *domain.State) {
	for _, o := range m {
		o.OnFinish(ctx, st)
	}
}

func (m Multi) OnSuccess(ctx context.Context, step string, st *domain.State, elapsed time.Duration) {
	for _, o := range m {
		o.OnSuccess(ctx, step, st, elapsed)
	}
}

func (m Multi) OnError(ctx context.Context, step string, err error, st *domain.State, elapsed time.Duration) {
	for _, o := range m {
		o.OnError(ctx, step, err, st, elapsed)
	}
}
