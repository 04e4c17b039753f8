package domain

import "context"

// StepFunc is a single named unit of work. It receives the current state
// and returns either the next state (continue) or an error (failure).
// Returning neither is ambiguous and is treated as a failure carrying
// the step's name.
type StepFunc func(ctx context.Context, st *State) (*State, error)

// ResultFunc maps the final state to the run's public result value.
type ResultFunc func(st *State) any

// ErrorFunc maps a failing step, its error and the state at failure time
// to the run's public error value. It may perform compensating side
// effects (rollback) before returning; the engine does not interpret
// what happens inside, only the returned value.
type ErrorFunc func(step string, cause error, st *State) error

// Definition is the capability contract the engine runs: an ordered step
// list, a resolver from step name to implementation, and the two
// terminal handlers.
type Definition interface {
	// Name identifies the definition in logs, records and telemetry.
	Name() string

	// Steps returns the ordered step names. The sequence must be stable
	// within a run. A nil slice means no step list was declared and
	// fails validation; an empty non-nil slice is a valid recipe with
	// nothing to do.
	Steps() []string

	// Step resolves a declared name to its implementation.
	Step(name string) (StepFunc, bool)

	// HandleResult produces the run's result value from the final state.
	HandleResult(st *State) any

	// HandleError produces the run's error value for a failed step. The
	// engine hands the caller this value verbatim, never re-wrapped.
	HandleError(step string, cause error, st *State) error
}

// Recipe is the standard Definition: step names resolve through a
// name-to-function table fixed when the recipe is built, so no runtime
// reflection is involved and the validator can check the table up front.
type Recipe struct {
	name     string
	steps    []string
	handlers map[string]StepFunc
	onResult ResultFunc
	onError  ErrorFunc
}

// NewRecipe assembles a recipe from its parts. It does not validate;
// build through the dsl package or gate with the engine's Validate
// before running.
func NewRecipe(name string, steps []string, handlers map[string]StepFunc, onResult ResultFunc, onError ErrorFunc) *Recipe {
	return &Recipe{
		name:     name,
		steps:    steps,
		handlers: handlers,
		onResult: onResult,
		onError:  onError,
	}
}

// Name returns the recipe identifier.
func (r *Recipe) Name() string { return r.name }

// Steps returns the declared step names in execution order.
func (r *Recipe) Steps() []string { return r.steps }

// Step resolves a step name against the handler table.
func (r *Recipe) Step(name string) (StepFunc, bool) {
	fn, ok := r.handlers[name]
	return fn, ok && fn != nil
}

// HandleResult applies the configured result handler. Without one, the
// result is the final state itself.
func (r *Recipe) HandleResult(st *State) any {
	if r.onResult == nil {
		return st
	}
	return r.onResult(st)
}

// HandleError applies the configured error handler. Without one, the
// cause is returned unchanged.
func (r *Recipe) HandleError(step string, cause error, st *State) error {
	if r.onError == nil {
		return cause
	}
	return r.onError(step, cause, st)
}
