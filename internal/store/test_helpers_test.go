package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/soloist/internal/gcprobe"
)

// createTestStore creates a file-backed store in a temp dir for testing.
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

// createTestRun builds a run record with two measurement samples.
func createTestRun(token, scenarioName, outcome string) Run {
	return Run{
		Token:       token,
		Scenario:    scenarioName,
		Mode:        "measure",
		Outcome:     outcome,
		TraceDigest: "digest-" + token,
		Budget:      1024,
		Iterations:  10,
		Samples: []gcprobe.Sample{
			{Attempt: 1, Allocated: 512, Retained: 64},
			{Attempt: 2, Allocated: 96, Retained: 0},
		},
	}
}
