package store

import (
	"context"
	"fmt"

	"github.com/roach88/soloist/internal/gcprobe"
)

// Comparison is the verdict of holding a fresh run against a stored baseline.
type Comparison struct {
	Scenario      string
	BaselineToken string
	CurrentToken  string

	// DigestMatch reports whether the trace digests agree.
	DigestMatch bool

	// OutcomeMatch reports whether the workload outcome stayed the same.
	OutcomeMatch bool

	// AllocatedDelta and RetainedDelta compare the last sample of each run,
	// in bytes per iteration. Zero when either run has no samples.
	AllocatedDelta int64
	RetainedDelta  int64

	// Regressions lists human-readable findings. Empty means no drift.
	Regressions []string
}

// Regressed reports whether the comparison found any drift.
func (c *Comparison) Regressed() bool {
	return len(c.Regressions) > 0
}

// Compare holds a fresh run against a baseline run of the same scenario.
//
// Drift is scored conservatively: outcome flips and digest changes always
// count, allocation figures count only when they grew.
func Compare(baseline, current Run) Comparison {
	cmp := Comparison{
		Scenario:      current.Scenario,
		BaselineToken: baseline.Token,
		CurrentToken:  current.Token,
		DigestMatch:   baseline.TraceDigest == current.TraceDigest,
		OutcomeMatch:  baseline.Outcome == current.Outcome,
	}

	if !cmp.OutcomeMatch {
		cmp.Regressions = append(cmp.Regressions,
			fmt.Sprintf("outcome changed: %s -> %s", baseline.Outcome, current.Outcome))
	}
	if !cmp.DigestMatch {
		cmp.Regressions = append(cmp.Regressions,
			fmt.Sprintf("trace digest changed: %s -> %s", baseline.TraceDigest, current.TraceDigest))
	}

	baseLast, baseOK := lastSample(baseline)
	curLast, curOK := lastSample(current)
	if baseOK && curOK {
		cmp.AllocatedDelta = curLast.Allocated - baseLast.Allocated
		cmp.RetainedDelta = curLast.Retained - baseLast.Retained

		if cmp.AllocatedDelta > 0 {
			cmp.Regressions = append(cmp.Regressions,
				fmt.Sprintf("allocated per iteration grew by %d bytes (%d -> %d)",
					cmp.AllocatedDelta, baseLast.Allocated, curLast.Allocated))
		}
		if cmp.RetainedDelta > 0 {
			cmp.Regressions = append(cmp.Regressions,
				fmt.Sprintf("retained per iteration grew by %d bytes (%d -> %d)",
					cmp.RetainedDelta, baseLast.Retained, curLast.Retained))
		}
	}

	return cmp
}

// CompareAgainstBaseline reads the scenario's latest passing run and holds
// current against it.
// Returns sql.ErrNoRows (wrapped) when the scenario has no baseline yet.
func (s *Store) CompareAgainstBaseline(ctx context.Context, current Run) (Comparison, error) {
	baseline, err := s.Baseline(ctx, current.Scenario)
	if err != nil {
		return Comparison{}, fmt.Errorf("baseline for %q: %w", current.Scenario, err)
	}
	return Compare(baseline, current), nil
}

// ListScenarios returns all distinct scenario names in the run log.
// Used by the compare and listing commands to enumerate scenarios.
// Results ordered alphabetically.
func (s *Store) ListScenarios(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT scenario FROM runs
		ORDER BY scenario
	`)
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan scenario name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenario names: %w", err)
	}

	if names == nil {
		names = []string{}
	}

	return names, nil
}

// lastSample returns a run's final measurement attempt.
func lastSample(run Run) (gcprobe.Sample, bool) {
	if len(run.Samples) == 0 {
		return gcprobe.Sample{}, false
	}
	return run.Samples[len(run.Samples)-1], true
}
