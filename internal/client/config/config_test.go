package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerAddr)
	assert.Equal(t, "modelvault.db", cfg.DatabaseDSN)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"cli", "-a", "http://example.com:9000", "-t", "5"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	assert.Equal(t, "http://example.com:9000", cfg.ServerAddr)
	assert.Equal(t, "modelvault.db", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestParseJson(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	err := os.WriteFile(path, []byte(`{"server_addr":"http://json:1234","request_timeout_seconds":10}`), 0o600)
	require.NoError(t, err)

	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	os.Args = []string{"cli", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "http://json:1234", cfg.ServerAddr)
	assert.Equal(t, "modelvault.db", cfg.DatabaseDSN)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}
