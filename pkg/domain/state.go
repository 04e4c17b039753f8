package domain

import "maps"

// State represents the snapshot of a run between two steps.
//
// A State is never mutated in place: Assign and Unassign return a fresh
// copy, so the value handed to step N+1 is exactly the value step N
// returned, and earlier references stay valid. Steps, handlers and
// observers may hold on to any State they were given.
type State struct {
	// Values holds the accumulated results, keyed by symbolic name.
	Values map[string]any

	// Recipe identifies the definition currently executing.
	// Stamped by the engine at run start; not user-settable before a run.
	Recipe string

	// CorrelationID is an opaque unique token identifying this run.
	// Assigned at run start unless an override is supplied through the
	// run options.
	CorrelationID string

	// Options are state-stored run defaults. Zero values carry no
	// opinion and defer to the engine defaults; call-time options
	// override them per key.
	Options RunOptions
}

// NewState creates an empty state.
func NewState() *State {
	return &State{Values: make(map[string]any)}
}

// Assign returns a new state with key set to value. The receiver is
// unchanged.
func (s *State) Assign(key string, value any) *State {
	next := s.clone()
	next.Values[key] = value
	return next
}

// Unassign returns a new state with key removed. The receiver is
// unchanged.
func (s *State) Unassign(key string) *State {
	next := s.clone()
	delete(next.Values, key)
	return next
}

// WithValues returns a new state with every entry of values assigned.
func (s *State) WithValues(values map[string]any) *State {
	next := s.clone()
	maps.Copy(next.Values, values)
	return next
}

// WithOptions returns a new state carrying opts as its run defaults.
func (s *State) WithOptions(opts RunOptions) *State {
	next := s.clone()
	next.Options = opts
	return next
}

// Value returns the value stored under key.
func (s *State) Value(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// ForRun returns a copy of s stamped with the recipe name, correlation
// id and resolved options for one run. Called by the engine; steps never
// need it.
func (s *State) ForRun(recipe, correlationID string, opts RunOptions) *State {
	next := s.clone()
	next.Recipe = recipe
	next.CorrelationID = correlationID
	next.Options = opts
	return next
}

func (s *State) clone() *State {
	next := *s
	next.Values = maps.Clone(s.Values)
	if next.Values == nil {
		next.Values = make(map[string]any)
	}
	return &next
}
