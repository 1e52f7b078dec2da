// ABOUTME: Tests for configuration loading, env expansion and validation.
// ABOUTME: Uses temp files per test; no global config paths are touched.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  base_url: "http://agent.example:9000"
  stream_path: "/api/stream"
auth:
  token: "tok123"
console:
  pause_each_step: true
  show_tool_arguments: true
stream:
  connect_timeout: "10s"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://agent.example:9000", cfg.Server.BaseURL)
	assert.Equal(t, "/api/stream", cfg.Server.StreamPath)
	assert.Equal(t, "tok123", cfg.Auth.Token)
	assert.True(t, cfg.Console.PauseEachStep)
	assert.True(t, cfg.Console.ShowToolArguments)
	assert.Equal(t, 10*time.Second, cfg.Stream.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_DefaultsApply(t *testing.T) {
	path := writeConfig(t, `
auth:
  token: "tok"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, "/api/coding-agent/stream", cfg.Server.StreamPath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_AGENT_TOKEN", "secret-token")

	path := writeConfig(t, `
auth:
  token: "${TEST_AGENT_TOKEN}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Auth.Token)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
stream:
  connect_timeout: "not-a-duration"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect_timeout")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate_RequiresBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestPath_EnvOverride(t *testing.T) {
	t.Setenv("AGENT_CLIENT_CONFIG", "/tmp/custom.yaml")
	assert.Equal(t, "/tmp/custom.yaml", Path())
}
