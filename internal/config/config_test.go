package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("WMSCTL_CONFIG", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", c.API.BaseURL)
	assert.Equal(t, 10*time.Second, c.API.Timeout)
	assert.Equal(t, 30*time.Second, c.Dashboard.PollInterval)
	assert.Equal(t, 5, c.Dashboard.RecentOrders)
	assert.Equal(t, 10, c.UI.LowStockThreshold)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "http://inventory.internal:9000"
timeout = "3s"

[dashboard]
poll_interval = "1m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("WMSCTL_CONFIG", path)
	t.Setenv("WMSCTL_LOG_LEVEL", "debug")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://inventory.internal:9000", c.API.BaseURL)
	assert.Equal(t, 3*time.Second, c.API.Timeout)
	assert.Equal(t, time.Minute, c.Dashboard.PollInterval)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadFile_MissingExplicitFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadServer(t *testing.T) {
	t.Setenv("INVENTORYD_HTTP_ADDR", ":9090")
	t.Setenv("INVENTORYD_WORKERS", "2")
	t.Setenv("INVENTORYD_ALLOCATION_DELAY", "250ms")

	s, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, ":9090", s.HTTPAddr)
	assert.Equal(t, ":50051", s.GRPCAddr)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, 250*time.Millisecond, s.AllocationDelay)
	assert.Equal(t, StorageMySQL, s.Storage)
}

func TestLoadServer_RejectsZeroWorkers(t *testing.T) {
	t.Setenv("INVENTORYD_WORKERS", "0")

	_, err := LoadServer()
	assert.Error(t, err)
}

func TestLoadServer_Storage(t *testing.T) {
	t.Setenv("INVENTORYD_STORAGE", "memory")
	s, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, s.Storage)

	t.Setenv("INVENTORYD_STORAGE", "postgres")
	_, err = LoadServer()
	assert.Error(t, err)
}
