package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"anukritich/nivaran/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  listen_addr: ":6001"
directions:
  base_url: "https://maps.example/api"
  api_key: "test-key"
backend:
  base_url: "https://backend.example"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":6001", cfg.Server.ListenAddr)
	assert.Equal(t, "test-key", cfg.Directions.APIKey)
	assert.Equal(t, "https://backend.example", cfg.Backend.BaseURL)
	// defaults fill the rest
	assert.Equal(t, "best_guess", cfg.Directions.TrafficModel)
	assert.Equal(t, 5, cfg.Directions.CacheTTLMinutes)
	assert.Equal(t, 2, cfg.Replay.IntervalSeconds)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
