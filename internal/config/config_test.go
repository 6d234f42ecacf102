package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MCASTLOG_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 9991, cfg.Multicast.Port)
	assert.Equal(t, 0, cfg.Multicast.TimeToLive)
	assert.False(t, cfg.Multicast.LocationInfo)
	assert.Equal(t, "mcastlog", cfg.Multicast.Name)
	assert.Equal(t, "kv", cfg.Listen.Format)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MCASTLOG_CONFIG", "")
	t.Setenv("MCASTLOG_REMOTE_HOST", "239.1.1.1")
	t.Setenv("MCASTLOG_TTL", "4")
	t.Setenv("MCASTLOG_LOCATION_INFO", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "239.1.1.1", cfg.Multicast.RemoteHost)
	assert.Equal(t, 4, cfg.Multicast.TimeToLive)
	assert.True(t, cfg.Multicast.LocationInfo)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcastlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
multicast:
  remote_host: 239.2.2.2
  port: 4445
  encoding: ISO-8859-1
listen:
  group: 239.2.2.2
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "239.2.2.2", cfg.Multicast.RemoteHost)
	assert.Equal(t, 4445, cfg.Multicast.Port)
	assert.Equal(t, "ISO-8859-1", cfg.Multicast.Encoding)
	assert.Equal(t, "json", cfg.Listen.Format)
	assert.Equal(t, 9991, cfg.Listen.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
