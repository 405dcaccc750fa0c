// Package scenario runs declarative harness scenarios: YAML files that name
// a registered workload, choose how to drive it, and assert on the outcome
// and the recorded pump trace.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one harness scenario.
// A scenario drives a registered workload in one of the execution modes and
// validates the observed outcome and trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file
	// name, so keep it filename-safe.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Workload names a registered workload (see Lookup).
	Workload string `yaml:"workload"`

	// Mode selects how the workload is driven:
	// - "pumped": driven to completion through a pump frame on a worker
	// - "apartment": run as a plain action on a worker
	// - "measure": allocation-probed against Budget
	Mode string `yaml:"mode"`

	// Budget is the allocation budget in bytes per iteration.
	// Only meaningful in measure mode.
	Budget int64 `yaml:"budget,omitempty"`

	// Iterations overrides the probe's iteration count. Zero keeps the
	// probe default. Only meaningful in measure mode.
	Iterations int `yaml:"iterations,omitempty"`

	// MaxAttempts overrides the probe's attempt bound. Zero keeps the
	// probe default. Only meaningful in measure mode.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// Expect specifies the expected outcome. If nil, the scenario expects
	// a clean pass.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the recorded trace.
	// Supported types: trace_contains, trace_order, trace_count
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunToken is an optional fixed run token for deterministic tests.
	// If empty, the runner's token generator decides; tests pin it so
	// golden comparison is byte-stable.
	RunToken string `yaml:"run_token,omitempty"`
}

// ExpectClause specifies the expected outcome of driving the workload.
type ExpectClause struct {
	// Outcome is "pass" or "fail".
	Outcome string `yaml:"outcome"`

	// FailureCode is the expected harness error code (e.g. "TIMEOUT").
	// Empty matches any failure, including plain workload errors that
	// carry no code. Only meaningful with Outcome "fail".
	FailureCode string `yaml:"failure_code,omitempty"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": the trace holds at least one event of Kind
	// - "trace_order": first occurrences of Kinds appear in order
	// - "trace_count": exactly Count events of Kind
	Type string `yaml:"type"`

	// Kind is the trace event kind (used by trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Note, when set, restricts trace_contains to events carrying it.
	Note string `yaml:"note,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected first-occurrence order (used by trace_order).
	Kinds []string `yaml:"kinds,omitempty"`
}

// Execution mode constants.
const (
	ModePumped    = "pumped"
	ModeApartment = "apartment"
	ModeMeasure   = "measure"
)

// Expected outcome constants.
const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// Load reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes scenario YAML with strict field validation (catches typos
// like "assertion:" vs "assertions:") and validates required fields.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Workload == "" {
		return fmt.Errorf("workload is required")
	}

	switch s.Mode {
	case ModePumped, ModeApartment:
		if s.Budget != 0 || s.Iterations != 0 || s.MaxAttempts != 0 {
			return fmt.Errorf("budget, iterations and max_attempts apply only to mode %q", ModeMeasure)
		}
	case ModeMeasure:
		if s.Budget < 0 {
			return fmt.Errorf("budget must be non-negative")
		}
		if s.Iterations < 0 {
			return fmt.Errorf("iterations must be non-negative")
		}
		if s.MaxAttempts < 0 {
			return fmt.Errorf("max_attempts must be non-negative")
		}
	case "":
		return fmt.Errorf("mode is required")
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}

	if s.Expect != nil {
		switch s.Expect.Outcome {
		case OutcomePass:
			if s.Expect.FailureCode != "" {
				return fmt.Errorf("expect.failure_code requires outcome %q", OutcomeFail)
			}
		case OutcomeFail:
		case "":
			return fmt.Errorf("expect.outcome is required")
		default:
			return fmt.Errorf("unknown expect.outcome %q", s.Expect.Outcome)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("assertions[%d]: at least two kinds are required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
