package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run and its samples in a single transaction.
//
// The token claims the row: ON CONFLICT(token) DO NOTHING makes recording
// idempotent, so a token that is already stored leaves the log untouched,
// samples included, and returns inserted=false.
func (s *Store) WriteRun(ctx context.Context, run Run) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Try to claim the token
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(token, scenario, mode, outcome, failure_code, trace_digest, budget, iterations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Scenario,
		run.Mode,
		run.Outcome,
		run.FailureCode,
		run.TraceDigest,
		run.Budget,
		run.Iterations,
	)
	if err != nil {
		return false, fmt.Errorf("write run: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Conflict - this token is already recorded, samples included
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("write run: commit (existing): %w", err)
		}
		return false, nil
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("write run: last insert id: %w", err)
	}

	for _, sample := range run.Samples {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO samples
			(run_id, attempt, allocated, retained)
			VALUES (?, ?, ?, ?)
		`,
			runID,
			sample.Attempt,
			sample.Allocated,
			sample.Retained,
		)
		if err != nil {
			return false, fmt.Errorf("write run: insert sample %d: %w", sample.Attempt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}

	return true, nil
}
