package core

// Store persists runs and per-test results.
//
// Implementations must be safe for concurrent RecordResult calls: the harness
// records results from its worker pool.
type Store interface {
	// Open opens the store at the given path. Use ":memory:" for an
	// in-memory store.
	Open(path string) error

	// Migrate brings the store schema up to date.
	Migrate() error

	// Close releases the underlying resources.
	Close() error

	// CreateRun records the start of a suite run.
	CreateRun(target, compiler string) (*Run, error)

	// CompleteRun marks a run finished with its final summary.
	CompleteRun(id string, status RunStatus, summary Summary, errMsg string) error

	// GetRun retrieves a run by ID.
	GetRun(id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// RecordResult appends a test result to a run.
	RecordResult(r *Result) error

	// ResultsForRun returns all results of a run in test-name order.
	ResultsForRun(runID string) ([]*Result, error)
}
