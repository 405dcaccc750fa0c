package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func TestValidateCommand_AllValid(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "noop.yaml", passingScenario)
	writeScenario(t, dir, "measure.yaml", measureScenario)

	buf, err := executeValidate(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All 2 scenario(s) valid")
}

func TestValidateCommand_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nworkloads: typo\n")

	buf, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "broken.yaml")
}

func TestValidateCommand_UnknownWorkload(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "ghost.yaml", `
name: ghost
description: References a workload nobody registered
workload: does-not-exist
mode: pumped
`)

	buf, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), `unknown workload "does-not-exist"`)
}

func TestValidateCommand_DoesNotRunWorkloads(t *testing.T) {
	dir := t.TempDir()
	// never-settles would hang a run; validate must not drive it
	writeScenario(t, dir, "stuck.yaml", `
name: stuck
description: Workload that never settles validates fine
workload: never-settles
mode: pumped
expect:
  outcome: fail
  failure_code: TIMEOUT
`)

	buf, err := executeValidate(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All 1 scenario(s) valid")
}

func TestValidateCommand_MissingPath(t *testing.T) {
	_, err := executeValidate(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand_EmptyDir(t *testing.T) {
	dir := t.TempDir()

	_, err := executeValidate(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no scenario files found")
}

func TestValidateCommand_JSONIssues(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "noop.yaml", passingScenario)
	writeScenario(t, dir, "broken.yaml", "not: a scenario\n")

	buf, err := executeValidate(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_INVALID_SCENARIO", resp.Error.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, float64(2), data["files"])
}
