package domain

import "time"

// Result is the public outcome of a successful run.
type Result struct {
	// CorrelationID identifies the run that produced this result. It
	// round-trips a supplied override verbatim.
	CorrelationID string `json:"correlation_id"`

	// Value is whatever the definition's HandleResult returned.
	Value any `json:"value"`
}

// RunStatus marks the terminal outcome of a recorded run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the persisted summary of a finished run. Only terminal
// outcomes are recorded; in-flight state never reaches a store.
type RunRecord struct {
	CorrelationID string         `json:"correlation_id"`
	Recipe        string         `json:"recipe"`
	Status        RunStatus      `json:"status"`
	Values        map[string]any `json:"values,omitempty"`
	FailedStep    string         `json:"failed_step,omitempty"`
	Error         string         `json:"error,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
}
