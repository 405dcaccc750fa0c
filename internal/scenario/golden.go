package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/soloist/internal/trace"
)

// Snapshot captures one scenario run for golden comparison. Serialization
// is canonical so the same run always produces byte-identical output.
type Snapshot struct {
	ScenarioName string
	RunToken     string
	Digest       string
	Trace        []trace.Event
}

// MarshalCanonical renders the snapshot with keys in lexicographic order,
// delegating the event array to the trace package's canonical form.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	events, err := trace.MarshalCanonical(s.Trace)
	if err != nil {
		return nil, fmt.Errorf("snapshot trace: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString(`"digest":`)
	if err := writeJSONString(&buf, s.Digest); err != nil {
		return nil, err
	}
	buf.WriteString(`,"run_token":`)
	if err := writeJSONString(&buf, s.RunToken); err != nil {
		return nil, err
	}
	buf.WriteString(`,"scenario_name":`)
	if err := writeJSONString(&buf, s.ScenarioName); err != nil {
		return nil, err
	}
	buf.WriteString(`,"trace":`)
	buf.Write(events)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString writes one JSON string without HTML escaping. Snapshot
// strings are identifiers (names, tokens, hex digests), so no Unicode
// normalization is needed here.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	out := tmp.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	buf.Write(out)
	return nil
}

// RunWithGolden executes a scenario and compares its trace snapshot against
// a golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
//
// Only deterministic scenarios belong in goldens: pin run_token in the
// scenario file and use workloads whose event order does not depend on
// cross-goroutine timing.
func RunWithGolden(t *testing.T, r *Runner, s *Scenario) *Result {
	t.Helper()

	res, err := r.Run(s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}

	AssertGolden(t, s.Name, res)
	return res
}

// AssertGolden compares an already-obtained result against the golden file
// named after the scenario.
func AssertGolden(t *testing.T, scenarioName string, res *Result) {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		RunToken:     res.RunToken,
		Digest:       res.Digest,
		Trace:        res.Trace,
	}
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal snapshot for %s: %v", scenarioName, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}
