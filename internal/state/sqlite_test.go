package state

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compilertools/dgcheck/internal/testutil"
	"github.com/compilertools/dgcheck/pkg/core"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

func TestStore_RunLifecycle(t *testing.T) {
	store := openTestStore(t)

	run, err := store.CreateRun("arm-none-eabi", "gcc (GCC) 13.1.0")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, core.RunStatusRunning, run.Status)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "arm-none-eabi", got.Target)
	assert.Equal(t, "gcc (GCC) 13.1.0", got.Compiler)
	assert.Nil(t, got.CompletedAt)

	summary := core.Summary{Pass: 3, Fail: 1, XFail: 1}
	require.NoError(t, store.CompleteRun(run.ID, core.RunStatusFailed, summary, "testsuite has failures"))

	got, err = store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusFailed, got.Status)
	assert.Equal(t, summary, got.Summary)
	assert.Equal(t, "testsuite has failures", got.Error)
	require.NotNil(t, got.CompletedAt)
}

func TestStore_GetRunNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetRun("no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestStore_ListRuns(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.CreateRun(fmt.Sprintf("target-%d", i), "gcc")
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = store.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestStore_Results(t *testing.T) {
	store := openTestStore(t)

	run, err := store.CreateRun("sh4-unknown-elf", "gcc")
	require.NoError(t, err)

	results := []*core.Result{
		{RunID: run.ID, Test: "sh/b.c", File: "/tests/sh/b.c", Status: core.StatusFail, Detail: "pattern not found", DurationMS: 40},
		{RunID: run.ID, Test: "sh/a.c", File: "/tests/sh/a.c", Status: core.StatusPass, DurationMS: 12},
	}
	for _, r := range results {
		require.NoError(t, store.RecordResult(r))
		assert.NotZero(t, r.ID)
	}

	got, err := store.ResultsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by test name.
	assert.Equal(t, "sh/a.c", got[0].Test)
	assert.Equal(t, core.StatusPass, got[0].Status)
	assert.Equal(t, "sh/b.c", got[1].Test)
	assert.Equal(t, "pattern not found", got[1].Detail)
	assert.Equal(t, int64(40), got[1].DurationMS)
}

func TestStore_ResultsForeignKey(t *testing.T) {
	store := openTestStore(t)

	err := store.RecordResult(&core.Result{RunID: "missing", Test: "t.c", Status: core.StatusPass})
	assert.Error(t, err)
}

func TestStore_ConcurrentRecordResult(t *testing.T) {
	store := openTestStore(t)

	run, err := store.CreateRun("x86_64-pc-linux-gnu", "gcc")
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			done <- store.RecordResult(&core.Result{
				RunID:  run.ID,
				Test:   fmt.Sprintf("t%d.c", i),
				Status: core.StatusPass,
			})
		}(i)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	got, err := store.ResultsForRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, got, 8)
}

func TestStore_OpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate())

	_, err := store.CreateRun("x", "gcc")
	require.NoError(t, err)
}

func TestStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun("x", "gcc")
	assert.Error(t, err)
	_, err = store.GetRun("id")
	assert.Error(t, err)
	assert.Error(t, store.RecordResult(&core.Result{}))
	assert.NoError(t, store.Close())
}

func TestStore_CreateRunExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO runs").WillReturnError(fmt.Errorf("disk I/O error"))

	store := NewSQLiteStore(nil).WithDB(db)
	_, err = store.CreateRun("x", "gcc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordResultExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO results").WillReturnError(fmt.Errorf("database is locked"))

	store := NewSQLiteStore(nil).WithDB(db)
	err = store.RecordResult(&core.Result{RunID: "r", Test: "t.c", Status: core.StatusPass})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "t.c")
	assert.NoError(t, mock.ExpectationsWereMet())
}
