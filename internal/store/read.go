package store

import (
	"context"
	"database/sql"
	"fmt"

	"fortio.org/safecast"

	"github.com/roach88/modopt/internal/pipeline"
)

const runColumns = `id, seq, module_name, config, config_hash, resolved, state, steps_run, strips_run,
	failed_stage, failed_step, failed_pass, error, input_fingerprint, output_fingerprint`

// ListRuns returns every stored run in insertion order.
//
// Returns an empty slice (not nil) if no runs are stored.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY seq ASC, id COLLATE BINARY ASC`)
}

// RunsByConfigHash returns the runs that used the config with the given
// hash, in insertion order.
func (s *Store) RunsByConfigHash(ctx context.Context, hash string) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs WHERE config_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC`, hash)
}

// RunsForModule returns the runs over the named module, in insertion order.
func (s *Store) RunsForModule(ctx context.Context, module string) ([]Run, error) {
	return s.queryRuns(ctx, `SELECT `+runColumns+` FROM runs WHERE module_name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC`, module)
}

// ReadRun retrieves a single run by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ReadEvents returns the events of one run in sequence order.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]pipeline.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, kind, stage, step, pass, ok, error, state
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []pipeline.Event{}
	for rows.Next() {
		var (
			e                  pipeline.Event
			kind, stage, state string
			step, ok           int64
		)
		if err := rows.Scan(&e.RunID, &e.Seq, &kind, &stage, &step, &e.Pass, &ok, &e.Error, &state); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.Step, err = safecast.Conv[int](step); err != nil {
			return nil, fmt.Errorf("scan event %d: step: %w", e.Seq, err)
		}
		e.Kind = pipeline.EventKind(kind)
		e.Stage = pipeline.Stage(stage)
		e.State = pipeline.State(state)
		e.OK = ok != 0
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r                               Run
		configJSON, resolvedJSON        string
		state, failedStage              string
		stepsRun, stripsRun, failedStep int64
	)
	err := row.Scan(
		&r.ID, &r.Seq, &r.Module, &configJSON, &r.ConfigHash, &resolvedJSON, &state,
		&stepsRun, &stripsRun, &failedStage, &failedStep, &r.FailedPass, &r.Error,
		&r.InputFingerprint, &r.OutputFingerprint,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if r.Config, err = unmarshalConfig(configJSON); err != nil {
		return Run{}, err
	}
	if r.Resolved, err = unmarshalResolved(resolvedJSON); err != nil {
		return Run{}, err
	}
	if r.StepsRun, err = safecast.Conv[int](stepsRun); err != nil {
		return Run{}, fmt.Errorf("scan run %s: steps_run: %w", r.ID, err)
	}
	if r.StripsRun, err = safecast.Conv[int](stripsRun); err != nil {
		return Run{}, fmt.Errorf("scan run %s: strips_run: %w", r.ID, err)
	}
	if r.FailedStep, err = safecast.Conv[int](failedStep); err != nil {
		return Run{}, fmt.Errorf("scan run %s: failed_step: %w", r.ID, err)
	}
	r.State = pipeline.State(state)
	r.FailedStage = pipeline.Stage(failedStage)
	return r, nil
}
