package output

// RunEvent is one JSON line emitted during `dgcheck run --json`. The Event
// field is run_start, test_complete, or run_complete; the remaining fields
// are populated per event kind.
type RunEvent struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id,omitempty"`

	// run_start
	Tests []string `json:"tests,omitempty"`

	// test_complete
	Test       string `json:"test,omitempty"`
	File       string `json:"file,omitempty"`
	Status     string `json:"status,omitempty"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`

	// run_complete
	TotalTests  int   `json:"total_tests,omitempty"`
	Pass        int   `json:"pass,omitempty"`
	Fail        int   `json:"fail,omitempty"`
	XFail       int   `json:"xfail,omitempty"`
	XPass       int   `json:"xpass,omitempty"`
	Unresolved  int   `json:"unresolved,omitempty"`
	Unsupported int   `json:"unsupported,omitempty"`
	TotalMS     int64 `json:"total_ms,omitempty"`
}
