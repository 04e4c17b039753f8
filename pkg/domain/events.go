package domain

import (
	"context"
	"time"
)

// EventType names the lifecycle events emitted around a run.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventRunFinished   EventType = "run_finished"
	EventStepSucceeded EventType = "step_succeeded"
	EventStepFailed    EventType = "step_failed"
)

// Observer receives the lifecycle callbacks for a run when telemetry is
// enabled. Callbacks fire strictly interleaved with execution: OnStart
// before the first step, then one OnSuccess or OnError per step in
// order, and OnFinish only when every step succeeded. A failed run ends
// with the failing step's OnError; OnFinish never fires on that path.
//
// The engine inspects no return values (there are none) and isolates
// failures: a panicking callback is recovered and logged, and the run's
// outcome is unaffected.
type Observer interface {
	// OnStart fires once, after options are resolved and before the
	// first step.
	OnStart(ctx context.Context, st *State)

	// OnFinish fires once, after the last step succeeded and before the
	// result handler runs.
	OnFinish(ctx context.Context, st *State)

	// OnSuccess fires after a step returned a new state. st is that new
	// state.
	OnSuccess(ctx context.Context, step string, st *State, elapsed time.Duration)

	// OnError fires after a step failed. st is the pre-step state, which
	// is also what the definition's error handler will receive.
	OnError(ctx context.Context, step string, err error, st *State, elapsed time.Duration)
}
