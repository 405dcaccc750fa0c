package store

import "github.com/roach88/soloist/internal/gcprobe"

// Run outcome values as stored in the runs.outcome column.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Run is one persisted scenario run.
//
// Outcome records what driving the workload produced, not whether the
// scenario's expectations held: an expected failure is stored as "fail"
// even though the expecting scenario stayed green.
type Run struct {
	// Token identifies the run. Writing the same token twice is a no-op.
	Token string

	// Scenario names the scenario that produced the run.
	Scenario string

	// Mode is the execution mode the run used (pumped, apartment, measure).
	Mode string

	// Outcome is OutcomePass or OutcomeFail.
	Outcome string

	// FailureCode is the harness error code, when the failure carried one.
	FailureCode string

	// TraceDigest is the canonical digest of the normalized trace.
	TraceDigest string

	// Budget is the allocation budget in bytes per iteration.
	// Zero outside measure mode.
	Budget int64

	// Iterations is the probe iteration count. Zero outside measure mode.
	Iterations int

	// CreatedAt is the insertion instant (RFC 3339 UTC). Informational
	// only; ordering uses the row id.
	CreatedAt string

	// Samples holds the allocation figures of each measurement attempt,
	// in attempt order.
	Samples []gcprobe.Sample
}

// Passed reports whether the workload itself passed.
func (r *Run) Passed() bool {
	return r.Outcome == OutcomePass
}
