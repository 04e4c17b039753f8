package telemetry

import (
	"context"
	"time"

	"github.com/cloud8421/recipe/pkg/domain"
)

// NopObserver satisfies the observer contract and discards every event.
// Use it to keep telemetry enabled while silencing output, e.g. in tests.
type NopObserver struct{}

var _ domain.Observer = NopObserver{}

// NewNopObserver creates a no-op observer.
func NewNopObserver() NopObserver { return NopObserver{} }

func (NopObserver) OnStart(context.Context, *domain.State) {}
func (NopObserver) OnFinish(context.Context, *domain.State) {}
func (NopObserver) OnSuccess(context.Context, string, *domain.State, time.Duration) {}
func (NopObserver) OnError(context.Context, string, error, *domain.State, time.Duration) {}
