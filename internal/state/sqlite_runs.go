package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/compilertools/dgcheck/pkg/core"
)

// CreateRun records the start of a suite run.
func (s *SQLiteStore) CreateRun(target, compiler string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:        generateID(),
		Target:    target,
		Compiler:  compiler,
		Status:    core.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", "id", run.ID, "target", target)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, target, compiler, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Target, run.Compiler, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished with its final summary.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, summary core.Summary, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?,
		        pass = ?, fail = ?, xfail = ?, xpass = ?,
		        unresolved = ?, unsupported = ?, untested = ?
		 WHERE id = ?`,
		string(status), now, errorPtr,
		summary.Pass, summary.Fail, summary.XFail, summary.XPass,
		summary.Unresolved, summary.Unsupported, summary.Untested,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, target, compiler, status, started_at, completed_at, error,
		        pass, fail, xfail, xpass, unresolved, unsupported, untested
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, target, compiler, status, started_at, completed_at, error,
		        pass, fail, xfail, xpass, unresolved, unsupported, untested
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanRun.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	var run core.Run
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&run.ID, &run.Target, &run.Compiler, &status, &run.StartedAt, &completedAt, &errMsg,
		&run.Summary.Pass, &run.Summary.Fail, &run.Summary.XFail, &run.Summary.XPass,
		&run.Summary.Unresolved, &run.Summary.Unsupported, &run.Summary.Untested,
	)
	if err != nil {
		return nil, err
	}

	run.Status = core.RunStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return &run, nil
}
