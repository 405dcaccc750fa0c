package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/soloist/internal/store"
)

const pinnedScenario = `
name: noop-pinned
description: Noop workload with a pinned run token for idempotent recording
workload: noop
mode: pumped
run_token: cli-test-token-0001
`

func executeRecord(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRecordCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestRecordCommand_PersistsRuns(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	writeScenario(t, dir, "noop.yaml", passingScenario)
	writeScenario(t, dir, "measure.yaml", measureScenario)

	buf, err := executeRecord(t, "--db", dbPath, dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Recorded 2 run(s) to "+dbPath)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()

	runs, err := st.ListRuns(ctx, "noop-smoke")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "pumped", runs[0].Mode)
	assert.Equal(t, store.OutcomePass, runs[0].Outcome)
	assert.NotEmpty(t, runs[0].TraceDigest)
	assert.Empty(t, runs[0].Samples)

	measured, err := st.ListRuns(ctx, "noop-measure-smoke")
	require.NoError(t, err)
	require.Len(t, measured, 1)
	assert.Equal(t, "measure", measured[0].Mode)
	assert.Equal(t, 5, measured[0].Iterations)
	assert.NotEmpty(t, measured[0].Samples)
}

func TestRecordCommand_DuplicateTokenIsNoOp(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	writeScenario(t, dir, "pinned.yaml", pinnedScenario)

	buf, err := executeRecord(t, "--db", dbPath, dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Recorded 1 run(s)")

	buf, err = executeRecord(t, "--db", dbPath, dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Recorded 0 run(s)")
	assert.Contains(t, buf.String(), "(1 duplicate)")
}

func TestRecordCommand_FailingScenarioStillRecorded(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	writeScenario(t, dir, "bad.yaml", failingScenario)

	_, err := executeRecord(t, "--db", dbPath, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), "sentinel-unexpected")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.OutcomeFail, runs[0].Outcome)
}

func TestRecordCommand_RequiresDBFlag(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "noop.yaml", passingScenario)

	_, err := executeRecord(t, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestRecordCommand_BadDatabasePath(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "noop.yaml", passingScenario)

	_, err := executeRecord(t, "--db", "/nonexistent/dir/runs.db", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open run log")
}
