package store

import (
	"context"
	"testing"
)

func TestWriteRun_InsertsRunAndSamples(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inserted, err := s.WriteRun(ctx, createTestRun("tok-1", "noop-measure", OutcomePass))
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for a fresh token")
	}

	got, err := s.ReadRun(ctx, "tok-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Scenario != "noop-measure" {
		t.Errorf("Scenario = %q, expected %q", got.Scenario, "noop-measure")
	}
	if got.Outcome != OutcomePass {
		t.Errorf("Outcome = %q, expected %q", got.Outcome, OutcomePass)
	}
	if got.TraceDigest != "digest-tok-1" {
		t.Errorf("TraceDigest = %q, expected %q", got.TraceDigest, "digest-tok-1")
	}
	if got.Budget != 1024 || got.Iterations != 10 {
		t.Errorf("probe settings = (%d, %d), expected (1024, 10)", got.Budget, got.Iterations)
	}
	if len(got.Samples) != 2 {
		t.Fatalf("len(Samples) = %d, expected 2", len(got.Samples))
	}
	if got.Samples[0].Attempt != 1 || got.Samples[0].Allocated != 512 || got.Samples[0].Retained != 64 {
		t.Errorf("first sample = %+v, expected attempt 1 / 512 / 64", got.Samples[0])
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt not populated by the database")
	}
}

func TestWriteRun_IdempotentByToken(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("tok-dup", "noop-measure", OutcomePass)
	if _, err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}

	// Second write with the same token must not touch the log, even with
	// different field values
	run.Outcome = OutcomeFail
	run.Samples = nil
	inserted, err := s.WriteRun(ctx, run)
	if err != nil {
		t.Fatalf("second WriteRun() failed: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for a duplicate token")
	}

	got, err := s.ReadRun(ctx, "tok-dup")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Outcome != OutcomePass {
		t.Errorf("Outcome = %q, first write should win", got.Outcome)
	}
	if len(got.Samples) != 2 {
		t.Errorf("len(Samples) = %d, duplicate write must not change samples", len(got.Samples))
	}
}

func TestWriteRun_NoSamples(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("tok-plain", "repost-three", OutcomePass)
	run.Mode = "pumped"
	run.Budget = 0
	run.Iterations = 0
	run.Samples = nil

	if _, err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "tok-plain")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if len(got.Samples) != 0 {
		t.Errorf("len(Samples) = %d, expected 0 for a pumped run", len(got.Samples))
	}
}

func TestWriteRun_NegativeFiguresSurvive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// A collection inside the measured window yields negative deltas
	run := createTestRun("tok-neg", "noop-measure", OutcomePass)
	run.Samples[1].Allocated = -32
	run.Samples[1].Retained = -8

	if _, err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "tok-neg")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Samples[1].Allocated != -32 || got.Samples[1].Retained != -8 {
		t.Errorf("second sample = %+v, expected -32 / -8", got.Samples[1])
	}
}
