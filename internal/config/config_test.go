package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.False(t, cfg.LLM.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
fetch:
  timeout: 10s
llm:
  enabled: true
  model: test-model
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	// Untouched keys keep their defaults.
	assert.Equal(t, "transform.db", cfg.Store.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("TP_SERVER_ADDR", ":7777")
	t.Setenv("TP_STORE_PATH", "/tmp/env.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/tmp/env.db", cfg.Store.Path)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load("/nope/missing.yaml")
	assert.Error(t, err)
}
