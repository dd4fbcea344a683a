// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	require.NotNil(t, cfg.Server)
	assert.Equal(t, ":8443", cfg.Server.ListenAddr)
	require.NotNil(t, cfg.Client)
	assert.Equal(t, 5*time.Second, cfg.Client.FinalizeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Client.RequestTimeout)
	require.NotNil(t, cfg.Session)
	assert.Equal(t, "hmac", cfg.Session.KeySchedule)
	assert.Equal(t, 5*time.Minute, cfg.Session.FrameSkew)
	require.NotNil(t, cfg.Store)
	assert.Equal(t, "memory", cfg.Store.Type)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NotNil(t, cfg.Metrics)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := `
environment: staging
server:
  listen_addr: ":9000"
session:
  key_schedule: hkdf
  frame_skew: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, "hkdf", cfg.Session.KeySchedule)
	assert.Equal(t, time.Minute, cfg.Session.FrameSkew)
	// untouched fields still get defaults
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	contents := `{"environment":"production","store":{"type":"postgres","dsn":"postgres://x"}}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.Equal(t, "postgres://x", cfg.Store.DSN)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Environment = "test"

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "out.yaml")
	require.NoError(t, SaveToFile(cfg, yamlPath))

	loaded, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "test", loaded.Environment)
	assert.Equal(t, cfg.Server.ListenAddr, loaded.Server.ListenAddr)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, SaveToFile(cfg, jsonPath))
	loadedJSON, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "test", loadedJSON.Environment)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}
