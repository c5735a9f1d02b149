package state

import (
	"fmt"

	"github.com/compilertools/dgcheck/pkg/core"
)

// RecordResult appends a test result to a run. Safe for concurrent use.
func (s *SQLiteStore) RecordResult(r *core.Result) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(
		`INSERT INTO results (run_id, test, file, status, detail, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Test, r.File, string(r.Status), r.Detail, r.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record result for %s: %w", r.Test, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		r.ID = id
	}
	return nil
}

// ResultsForRun returns all results of a run in test-name order.
func (s *SQLiteStore) ResultsForRun(runID string) ([]*core.Result, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, test, file, status, detail, duration_ms
		 FROM results WHERE run_id = ? ORDER BY test`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*core.Result
	for rows.Next() {
		var r core.Result
		var status string
		if err := rows.Scan(&r.ID, &r.RunID, &r.Test, &r.File, &status, &r.Detail, &r.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Status = core.Status(status)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return results, nil
}
