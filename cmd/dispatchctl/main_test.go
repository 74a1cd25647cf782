package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	out, err := execute(t, "score",
		"--lat", "21.5433", "--lng", "39.1728",
		"--service-type", "plumbing",
		"--technicians", filepath.Join("testdata", "technicians.json"),
	)
	require.NoError(t, err)

	var report scoreReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, 3, report.PoolSize)
	assert.Equal(t, 2, report.EligibleCount)
	require.Len(t, report.Shortlist, 2)
	assert.Equal(t, "t-near", report.Shortlist[0].TechnicianID)
	assert.InDelta(t, 93.4, report.Shortlist[0].Score, 0.01)
	assert.Equal(t, 10.0, report.Shortlist[0].Breakdown.Specialization)
	assert.Equal(t, "t-far", report.Shortlist[1].TechnicianID)
	assert.InDelta(t, 11.12, report.Shortlist[1].DistanceKm, 0.05)
}

func TestScoreCommand_BadInput(t *testing.T) {
	_, err := execute(t, "score", "--lat", "95", "--lng", "39", "--technicians", filepath.Join("testdata", "technicians.json"))
	assert.ErrorContains(t, err, "invalid request location")

	_, err = execute(t, "score", "--lat", "21", "--lng", "39", "--technicians", filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)

	_, err = execute(t, "score", "--lat", "21", "--lng", "39", "--tie-break", "coin", "--technicians", filepath.Join("testdata", "technicians.json"))
	assert.ErrorContains(t, err, "unknown tie break")
	scoreTieBreak = ""
}

func TestRegistryCommands(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, src, 0o600))

	out, err := execute(t, "registry", "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 activities")

	out, err = execute(t, "registry", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "assign-technician")
	assert.Contains(t, out, "completed")

	_, err = execute(t, "registry", "update", "assign-technician", "status", "deprecated", "--path", path)
	require.NoError(t, err)

	out, err = execute(t, "registry", "list", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "deprecated")
}

func TestRegistryValidate_Broken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"activities":[{"id":"a","taskType":"t","implementationStatus":"completed","inputSchema":{"type":7}}]}`), 0o600))

	out, err := execute(t, "registry", "validate", "--path", path)
	assert.ErrorContains(t, err, "1 problem")
	assert.Contains(t, out, `activity "a"`)
}
