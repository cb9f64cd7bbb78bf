package reactor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_MatchesTimerPackageConstants(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 4*time.Second, cfg.Timer.IdleWindow)
	assert.Equal(t, 1*time.Second, cfg.Timer.WallClockRecheckCap)
}

func TestLoadConfig_WithNilFeederUsesDefaults(t *testing.T) {
	var cfg Config
	err := LoadConfig(nil, "", &cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Timer, cfg.Timer)
}

func TestLoadConfig_EnvOverrideWinsOverDefault(t *testing.T) {
	t.Setenv("REACTOR_TIMER_IDLE_WINDOW", "9s")
	defer os.Unsetenv("REACTOR_TIMER_IDLE_WINDOW")

	var cfg Config
	err := LoadConfig(nil, "", &cfg)
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, cfg.Timer.IdleWindow)
}

func TestLoadConfig_TomlFeederPopulatesConfig(t *testing.T) {
	path := writeTempFile(t, "config-*.toml", `
[debug_server]
addr = "0.0.0.0:9999"
enabled = true
`)

	var cfg Config
	err := LoadConfig(TomlFeeder{}, path, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.DebugServer.Addr)
	assert.True(t, cfg.DebugServer.Enabled)
}

func TestLoadConfig_YAMLFeederPopulatesConfig(t *testing.T) {
	path := writeTempFile(t, "config-*.yaml", "debug_server:\n  addr: 0.0.0.0:8888\n  enabled: true\n")

	var cfg Config
	err := LoadConfig(YAMLFeeder{}, path, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8888", cfg.DebugServer.Addr)
	assert.True(t, cfg.DebugServer.Enabled)
}

func writeTempFile(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
