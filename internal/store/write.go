package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/modopt/internal/pipeline"
)

// WriteRun stores a run and its events in one transaction and returns the
// run with Seq assigned.
//
// Writing a run id that is already stored is a no-op: the stored record is
// kept and its Seq returned, so a retried write cannot duplicate history.
func (s *Store) WriteRun(ctx context.Context, run Run, events []pipeline.Event) (Run, error) {
	configJSON, err := marshalConfig(run.Config)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}
	resolvedJSON, err := marshalResolved(run.Resolved)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	err = tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&run.Seq)
	switch {
	case err == nil:
		return run, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("write run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, module_name, config, config_hash, resolved, state, steps_run, strips_run,
		 failed_stage, failed_step, failed_pass, error, input_fingerprint, output_fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Module,
		configJSON,
		run.ConfigHash,
		resolvedJSON,
		string(run.State),
		run.StepsRun,
		run.StripsRun,
		string(run.FailedStage),
		run.FailedStep,
		run.FailedPass,
		run.Error,
		run.InputFingerprint,
		run.OutputFingerprint,
	)
	if err != nil {
		return Run{}, fmt.Errorf("write run: %w", err)
	}

	for _, e := range events {
		if e.RunID != "" && e.RunID != run.ID {
			return Run{}, fmt.Errorf("write run: event %d belongs to run %s, not %s", e.Seq, e.RunID, run.ID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (run_id, seq, kind, stage, step, pass, ok, error, state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			e.Seq,
			string(e.Kind),
			string(e.Stage),
			e.Step,
			e.Pass,
			boolToInt(e.OK),
			e.Error,
			string(e.State),
		)
		if err != nil {
			return Run{}, fmt.Errorf("write run: event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
