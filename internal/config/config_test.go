package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/transport-challenge/go-controller/internal/state"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 200, cfg.Action.StabilizeMaxTicks)
	assert.Equal(t, 0.1, cfg.Goal.FloorTolerance)
	assert.Equal(t, 4, cfg.Mission.PourEvery)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
backend: grpc
sim_addr: sim:50051
rpc_timeout: 5s
log:
  format: json
action:
  stabilize_max_ticks: 50
  presentation_offset: {x: 0.2, y: 0.4, z: 0.6}
mission:
  container_arm: left
  pour_every: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendGRPC, cfg.Backend)
	assert.Equal(t, "sim:50051", cfg.SimAddr)
	assert.Equal(t, 5*time.Second, cfg.RPCTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep their defaults")
	assert.Equal(t, 50, cfg.Action.StabilizeMaxTicks)
	assert.Equal(t, 0.001, cfg.Action.StabilizeEpsilon)
	assert.Equal(t, state.Vec3{X: 0.2, Y: 0.4, Z: 0.6}, cfg.Action.PresentationOffset)
	assert.Equal(t, state.Left, cfg.Mission.ContainerArm)
	assert.Equal(t, 3, cfg.Mission.PourEvery)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "db_path: file.db\n")
	t.Setenv("TRANSPORT_DB", "env.db")
	t.Setenv("TRANSPORT_LOG_LEVEL", "debug")
	t.Setenv("TRANSPORT_SCENE", "scene.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "scene.json", cfg.ScenePath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "backend: mujoco\n"},
		{"grpc without address", "backend: grpc\nsim_addr: \"\"\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"zero pour interval", "mission:\n  pour_every: 0\n"},
		{"bad arm", "mission:\n  container_arm: middle\n"},
		{"negative tolerance", "goal:\n  floor_tolerance: -1\n"},
		{"zero stabilize cap", "action:\n  stabilize_max_ticks: 0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeFile(t, "backend: [unclosed\n"))
	assert.Error(t, err)
}
