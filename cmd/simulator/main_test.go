package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/liquid/internal/simulator"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunWaveScenario(t *testing.T) {
	out, err := execute(t, "run",
		"--scenario", filepath.Join("scenarios", "wave.yaml"),
		"--output", "json",
		"--log-level", "off",
	)
	require.NoError(t, err)

	var s simulator.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "wave", s.Scenario)
	assert.EqualValues(t, 300, s.Frames)
	assert.Equal(t, "30s", s.Simulated)
	require.Len(t, s.Trees, 2)
	assert.Equal(t, "turret", s.Trees[0].Name)
	assert.EqualValues(t, 1, s.Trees[0].Interrupts)
	require.Len(t, s.Pools, 2)
	assert.Equal(t, "bullet", s.Pools[0].Key)
	assert.Positive(t, s.Pools[0].Demanded)
	assert.GreaterOrEqual(t, s.Pools[0].Peak, s.Pools[0].Size)
}

func TestRunFramesFlagOverridesScenario(t *testing.T) {
	out, err := execute(t, "run",
		"--scenario", filepath.Join("scenarios", "wave.yaml"),
		"--frames", "20",
		"--output", "text",
		"--log-level", "off",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "scenario wave: 20 frames, 2s simulated")
}

func TestRunMissingScenario(t *testing.T) {
	_, err := execute(t, "run", "--scenario", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "off")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join("scenarios", "wave.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "ok (2 trees, 2 pools, 300 frames)")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\ndemand:\n  - {pool: p}\n"), 0o600))
	_, err = execute(t, "validate", bad)
	assert.ErrorIs(t, err, simulator.ErrInvalidScenario)
}
