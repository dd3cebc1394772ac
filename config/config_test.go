package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty dir and clears overrides
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvLogging, "")
	os.Unsetenv(EnvConfigFile)
	os.Unsetenv(EnvLogging)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 2*time.Second, cfg.Poll.TickInterval)
	assert.Equal(t, ".", cfg.Workspace.Root)
	assert.True(t, cfg.Workspace.Watch)
	assert.False(t, cfg.Audio.Enabled)
	assert.False(t, cfg.Log.Enabled)
	assert.Equal(t, filepath.Join(home, ".termloop", "termloop.log"), cfg.Log.Path)
}

func TestLoadFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[poll]
interval = "50ms"
tick_interval = "1s"

[workspace]
root = "/tmp"
watch = false

[audio]
enabled = true
volume = 0.25
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, time.Second, cfg.Poll.TickInterval)
	assert.Equal(t, "/tmp", cfg.Workspace.Root)
	assert.False(t, cfg.Workspace.Watch)
	assert.True(t, cfg.Audio.Enabled)
	assert.InDelta(t, 0.25, cfg.Audio.Volume, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TERMLOOP_POLL_TICK_INTERVAL", "750ms")
	t.Setenv("TERMLOOP_WORKSPACE_ROOT", "/var")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Poll.TickInterval)
	assert.Equal(t, "/var", cfg.Workspace.Root)
}

func TestLoggingToggleByPresence(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogging, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Log.Enabled)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Poll.Interval = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Poll.TickInterval = -time.Second
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Audio.Volume = 1.5
	assert.Error(t, bad.Validate())

	assert.NoError(t, cfg.Validate())
}
