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
	t.Setenv("TODO_BASE_URL", "")
	t.Setenv("TODO_BACKEND", "")
	t.Setenv("TODO_TIMEOUT", "")
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, BackendREST, cfg.Backend)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := "base_url: https://todo.example.com\nbackend: GoogleTasks\ntimeout: 3s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte(settings), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://todo.example.com", cfg.BaseURL)
	assert.Equal(t, BackendGoogleTasks, cfg.Backend)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte("base_url: https://file.example.com\n"), 0600))
	t.Setenv("TODO_BASE_URL", "https://env.example.com")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TODO_BACKEND", "carrier-pigeon")

	_, err := Load(t.TempDir())
	assert.EqualError(t, err, "unknown backend: carrier-pigeon")
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("TODO_TIMEOUT", "0s")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	tests := []string{"localhost:8000", "ftp://todo.example.com", "http://", "http://bad host"}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("TODO_BASE_URL", raw)

			_, err := Load(t.TempDir())
			assert.ErrorContains(t, err, "invalid base_url")
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := New("/tmp/todo-test")
	assert.Equal(t, "/tmp/todo-test/session.json", cfg.SessionPath())
	assert.Equal(t, "/tmp/todo-test/oauth_client.json", cfg.OAuthClientPath())
}

func TestDefaultConfigDirXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/todo", DefaultConfigDir())
}
