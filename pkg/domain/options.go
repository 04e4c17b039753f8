package domain

// RunOptions holds the options attached to a state or resolved for a
// run. On a state they act as defaults for runs over that state. Zero
// values carry no opinion and fall through to the engine defaults
// (telemetry off, built-in logging observer, generated correlation id).
type RunOptions struct {
	// Telemetry turns the observer protocol on for the run.
	Telemetry bool

	// Observer receives the lifecycle callbacks when telemetry is on.
	Observer Observer

	// CorrelationID pins the run identifier instead of generating one.
	CorrelationID string
}

// RunCall collects explicit per-call overrides. Only keys that were
// explicitly set override the state-stored options, so a call-time
// WithTelemetry(false) wins over a state-stored true while an untouched
// key falls back to the state, then to the engine defaults.
type RunCall struct {
	telemetry     *bool
	observer      Observer
	correlationID string
}

// RunOption overrides a single run option for one call.
type RunOption func(*RunCall)

// WithTelemetry enables or disables the observer protocol for this call.
func WithTelemetry(enabled bool) RunOption {
	return func(c *RunCall) { c.telemetry = &enabled }
}

// WithObserver routes this call's lifecycle callbacks to o.
func WithObserver(o Observer) RunOption {
	return func(c *RunCall) { c.observer = o }
}

// WithCorrelationID pins the run identifier for this call.
func WithCorrelationID(id string) RunOption {
	return func(c *RunCall) { c.correlationID = id }
}

// NewRunCall applies opts and returns the collected overrides.
func NewRunCall(opts ...RunOption) *RunCall {
	c := &RunCall{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Resolve merges the overrides over stored, then over defaults.
// Explicitly set call keys win; unspecified keys fall back to stored,
// then to defaults.
func (c *RunCall) Resolve(stored, defaults RunOptions) RunOptions {
	out := RunOptions{
		Telemetry:     stored.Telemetry || defaults.Telemetry,
		Observer:      stored.Observer,
		CorrelationID: stored.CorrelationID,
	}
	if out.Observer == nil {
		out.Observer = defaults.Observer
	}
	if out.CorrelationID == "" {
		out.CorrelationID = defaults.CorrelationID
	}
	if c == nil {
		return out
	}
	if c.telemetry != nil {
		out.Telemetry = *c.telemetry
	}
	if c.observer != nil {
		out.Observer = c.observer
	}
	if c.correlationID != "" {
		out.CorrelationID = c.correlationID
	}
	return out
}
