package scenario

import (
	"errors"

	"github.com/roach88/soloist/internal/apartment"
	"github.com/roach88/soloist/internal/gcprobe"
	"github.com/roach88/soloist/internal/trace"
)

// Result is the outcome of one scenario run.
//
// Pass covers the whole scenario: the observed outcome matched the expect
// clause and every trace assertion held. Outcome reports only what the
// workload itself did, so an expected failure still yields Pass true.
type Result struct {
	// Scenario names the scenario that produced this result.
	Scenario string `json:"scenario"`

	// RunToken identifies this run.
	RunToken string `json:"run_token"`

	// Pass indicates overall scenario success.
	Pass bool `json:"pass"`

	// Outcome is "pass" or "fail": what driving the workload produced.
	Outcome string `json:"outcome"`

	// FailureCode is the harness error code, when the failure carried one.
	FailureCode string `json:"failure_code,omitempty"`

	// FailureText is the failure's message verbatim.
	FailureText string `json:"failure_text,omitempty"`

	// Trace holds the recorded pump events, goroutine-normalized.
	Trace []trace.Event `json:"trace"`

	// Digest is the canonical trace digest, used for baseline comparison.
	Digest string `json:"digest"`

	// Report carries the allocation figures in measure mode.
	Report *gcprobe.Report `json:"report,omitempty"`

	// Errors lists expectation and assertion failures. Empty when Pass.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult(scenarioName, runToken string) *Result {
	return &Result{
		Scenario: scenarioName,
		RunToken: runToken,
		Pass:     true,
		Trace:    []trace.Event{},
	}
}

// AddError records a validation error and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// observe records what driving the workload produced.
func (r *Result) observe(err error) {
	if err == nil {
		r.Outcome = OutcomePass
		return
	}
	r.Outcome = OutcomeFail
	r.FailureText = err.Error()

	var he *apartment.Error
	if errors.As(err, &he) {
		r.FailureCode = string(he.Code)
	}
}
