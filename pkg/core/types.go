package core

import "time"

// RunStatus represents the overall status of a suite run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a single invocation of the test suite.
type Run struct {
	ID          string     `json:"id"`
	Target      string     `json:"target"`
	Compiler    string     `json:"compiler"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Summary     Summary    `json:"summary"`
}

// Result is the recorded outcome of one test within a run.
type Result struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Test       string `json:"test"`
	File       string `json:"file"`
	Status     Status `json:"status"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}
