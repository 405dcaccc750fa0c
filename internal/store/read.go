package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/soloist/internal/gcprobe"
)

// ReadRun retrieves a single run by token, samples included.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, token string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, scenario, mode, outcome, failure_code, trace_digest, budget, iterations, created_at
		FROM runs
		WHERE token = ?
	`, token)

	id, run, err := scanRunRow(row)
	if err != nil {
		return Run{}, err
	}

	run.Samples, err = s.readSamples(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns all runs for a scenario, newest first, samples included.
// Returns an empty slice (not nil) if no runs exist for the scenario.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]Run, error) {
	// Newest first by insertion order; the row id is the only ordering key
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, scenario, mode, outcome, failure_code, trace_digest, budget, iterations, created_at
		FROM runs
		WHERE scenario = ?
		ORDER BY id DESC
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var runs []Run
	for rows.Next() {
		id, run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		runs[i].Samples, err = s.readSamples(ctx, ids[i])
		if err != nil {
			return nil, err
		}
	}

	// Return empty slice instead of nil
	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}

// Baseline returns the most recent passing run for a scenario.
// Returns sql.ErrNoRows if the scenario has no passing run yet.
func (s *Store) Baseline(ctx context.Context, scenario string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, scenario, mode, outcome, failure_code, trace_digest, budget, iterations, created_at
		FROM runs
		WHERE scenario = ? AND outcome = ?
		ORDER BY id DESC
		LIMIT 1
	`, scenario, OutcomePass)

	id, run, err := scanRunRow(row)
	if err != nil {
		return Run{}, err
	}

	run.Samples, err = s.readSamples(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// readSamples returns a run's samples in attempt order.
func (s *Store) readSamples(ctx context.Context, runID int64) ([]gcprobe.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attempt, allocated, retained
		FROM samples
		WHERE run_id = ?
		ORDER BY attempt ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []gcprobe.Sample
	for rows.Next() {
		var sample gcprobe.Sample
		if err := rows.Scan(&sample.Attempt, &sample.Allocated, &sample.Retained); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	return samples, nil
}

// scanRun scans a row into a Run struct and its row id.
func scanRun(rows *sql.Rows) (int64, Run, error) {
	var id int64
	var run Run

	if err := rows.Scan(
		&id, &run.Token, &run.Scenario, &run.Mode, &run.Outcome,
		&run.FailureCode, &run.TraceDigest, &run.Budget, &run.Iterations, &run.CreatedAt,
	); err != nil {
		return 0, Run{}, fmt.Errorf("scan run: %w", err)
	}

	return id, run, nil
}

// scanRunRow scans a single row into a Run struct and its row id.
func scanRunRow(row *sql.Row) (int64, Run, error) {
	var id int64
	var run Run

	if err := row.Scan(
		&id, &run.Token, &run.Scenario, &run.Mode, &run.Outcome,
		&run.FailureCode, &run.TraceDigest, &run.Budget, &run.Iterations, &run.CreatedAt,
	); err != nil {
		return 0, Run{}, err
	}

	return id, run, nil
}
