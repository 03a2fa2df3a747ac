package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/modopt/internal/catalog"
	"github.com/roach88/modopt/internal/pipeline"
	"github.com/roach88/modopt/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// executeRun runs a pipeline over a fixture module with a Recorder attached
// and returns the record and events ready to write.
func executeRun(t *testing.T, runID string, opts pipeline.Options, breakAt int) (Run, []pipeline.Event) {
	t.Helper()
	rec := NewRecorder()
	cfg, err := pipeline.NewConfig(opts)
	require.NoError(t, err)

	var p *pipeline.Pipeline
	if breakAt > 0 {
		var steps []pipeline.Step
		for i := 1; i <= 4; i++ {
			id := catalog.PassID(fmt.Sprintf("p%d", i))
			if i == breakAt {
				steps = append(steps, pipeline.Step{ID: id, Transformation: testutil.NewBreakingPass(string(id), nil)})
			} else {
				steps = append(steps, pipeline.Step{ID: id, Transformation: testutil.NewCountingPass(string(id), nil)})
			}
		}
		p = pipeline.NewPipeline(steps...)
	} else {
		p, err = pipeline.NewBuilder(nil).Build(cfg)
		require.NoError(t, err)
	}

	e := pipeline.NewExecutor(pipeline.WithObserver(rec), pipeline.WithRunIDs(testutil.NewFixedRunID(runID)))
	report, runErr := e.Run(p, cfg, testutil.WholeProgram())

	run, err := NewRun("prog", cfg, report, runErr)
	require.NoError(t, err)
	events := rec.Take(runID)
	assert.Zero(t, rec.Pending())
	return run, events
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"runs", "events"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
	for _, index := range []string{"idx_runs_config_hash", "idx_runs_module_name"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", index).Scan(&name)
		assert.NoError(t, err, "index %q missing", index)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, events := executeRun(t, "run-a", pipeline.Options{EntryPoint: "main", Strip: pipeline.StripAll}, 0)
	written, err := s.WriteRun(ctx, run, events)
	require.NoError(t, err)
	assert.Equal(t, int64(1), written.Seq)

	got, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, written, got)

	assert.Equal(t, pipeline.StateDone, got.State)
	assert.Equal(t, catalog.DefaultSequenceVersion, got.Config.DefaultSequence)
	assert.Equal(t, "all", got.Config.Strip)
	assert.Len(t, got.Resolved, 64)
	assert.NotEmpty(t, got.OutputFingerprint)

	stored, err := s.ReadEvents(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, events, stored)
	assert.Equal(t, pipeline.EventRunFinished, stored[len(stored)-1].Kind)
}

func TestWriteRun_FailedRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, events := executeRun(t, "run-bad", pipeline.Options{VerifyEach: true}, 2)
	_, err := s.WriteRun(ctx, run, events)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, "run-bad")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateFailed, got.State)
	assert.Equal(t, pipeline.StageMain, got.FailedStage)
	assert.Equal(t, 2, got.FailedStep)
	assert.Equal(t, "p2", got.FailedPass)
	assert.Equal(t, 2, got.StepsRun)
	assert.Contains(t, got.Error, "main: verification failed after step 2 (p2)")
	assert.Empty(t, got.OutputFingerprint)
	assert.Equal(t, []catalog.PassID{"p1", "p2", "p3", "p4"}, got.Resolved)

	stored, err := s.ReadEvents(ctx, "run-bad")
	require.NoError(t, err)
	last := stored[len(stored)-1]
	assert.Equal(t, pipeline.StateFailed, last.State)
	assert.NotEmpty(t, last.Error)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, events := executeRun(t, "run-a", pipeline.Options{DisableOptimizations: true}, 0)
	first, err := s.WriteRun(ctx, run, events)
	require.NoError(t, err)
	second, err := s.WriteRun(ctx, run, events)
	require.NoError(t, err)
	assert.Equal(t, first.Seq, second.Seq)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	stored, err := s.ReadEvents(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, stored, len(events))
}

func TestWriteRun_RejectsForeignEvents(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run, events := executeRun(t, "run-a", pipeline.Options{DisableOptimizations: true}, 0)
	events[0].RunID = "run-z"

	_, err := s.WriteRun(ctx, run, events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to run run-z")

	// The transaction rolled back.
	_, err = s.ReadRun(ctx, "run-a")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListRuns_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	// ids deliberately sort the other way round
	for _, id := range []string{"run-c", "run-b", "run-a"} {
		run, events := executeRun(t, id, pipeline.Options{DisableOptimizations: true}, 0)
		_, err := s.WriteRun(ctx, run, events)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, want := range []string{"run-c", "run-b", "run-a"} {
		assert.Equal(t, want, runs[i].ID)
		assert.Equal(t, int64(i+1), runs[i].Seq)
	}
}

func TestRunsByConfigHash(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, ea := executeRun(t, "run-a", pipeline.Options{DisableOptimizations: true}, 0)
	b, eb := executeRun(t, "run-b", pipeline.Options{DisableOptimizations: true, Strip: pipeline.StripDebug}, 0)
	c, ec := executeRun(t, "run-c", pipeline.Options{DisableOptimizations: true}, 0)
	for _, w := range []struct {
		r Run
		e []pipeline.Event
	}{{a, ea}, {b, eb}, {c, ec}} {
		_, err := s.WriteRun(ctx, w.r, w.e)
		require.NoError(t, err)
	}

	same, err := s.RunsByConfigHash(ctx, a.ConfigHash)
	require.NoError(t, err)
	require.Len(t, same, 2)
	assert.Equal(t, "run-a", same[0].ID)
	assert.Equal(t, "run-c", same[1].ID)

	byModule, err := s.RunsForModule(ctx, "prog")
	require.NoError(t, err)
	assert.Len(t, byModule, 3)

	none, err := s.RunsForModule(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	events, err := s.ReadEvents(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestRecorder_SeparatesRuns(t *testing.T) {
	rec := NewRecorder()
	rec.Observe(pipeline.Event{RunID: "a", Seq: 1})
	rec.Observe(pipeline.Event{RunID: "b", Seq: 1})
	rec.Observe(pipeline.Event{RunID: "a", Seq: 2})

	assert.Equal(t, 2, rec.Pending())
	a := rec.Take("a")
	require.Len(t, a, 2)
	assert.Equal(t, int64(2), a[1].Seq)
	assert.Nil(t, rec.Take("a"))
	assert.Equal(t, 1, rec.Pending())
}
