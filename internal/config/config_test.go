package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"RBXSYNC_HOST", "RBXSYNC_PORT", "RBXSYNC_POLL_TIMEOUT", "RBXSYNC_REQUEST_TIMEOUT",
	"RBXSYNC_EXTRACT_TIMEOUT", "RBXSYNC_WATERMARK_DSN", "RBXSYNC_SECRET", "RBXSYNC_LOG_FILE",
	"RBXSYNC_SERVER_URL", "RBXSYNC_TRACE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rbxsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, "127.0.0.1:44755", cfg.Addr())
	assert.Equal(t, "http://127.0.0.1:44755", cfg.URL())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("RBXSYNC_HOST", "0.0.0.0")
	t.Setenv("RBXSYNC_PORT", "9000")
	t.Setenv("RBXSYNC_POLL_TIMEOUT", "5s")
	t.Setenv("RBXSYNC_EXTRACT_TIMEOUT", "2m")
	t.Setenv("RBXSYNC_SECRET", "s3cret")
	t.Setenv("RBXSYNC_TRACE", "1")
	t.Setenv("RBXSYNC_SERVER_URL", "http://studio-box:9000/")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.PollTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.ExtractTimeout)
	assert.Equal(t, "s3cret", cfg.Secret)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "http://studio-box:9000", cfg.URL())
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RBXSYNC_PORT", "9000")
	t.Setenv("RBXSYNC_SECRET", "from-env")

	path := writeTempConfig(t, "port: 9100\nrequest_timeout: 45s\nwatermark_dsn: postgres://localhost/rbxsync\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "postgres://localhost/rbxsync", cfg.WatermarkDSN)
	assert.Equal(t, "from-env", cfg.Secret)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad_port", env: map[string]string{"RBXSYNC_PORT": "abc"}},
		{name: "port_out_of_range", env: map[string]string{"RBXSYNC_PORT": "70000"}},
		{name: "bad_duration", env: map[string]string{"RBXSYNC_POLL_TIMEOUT": "soon"}},
		{name: "bad_trace", env: map[string]string{"RBXSYNC_TRACE": "maybe"}},
		{name: "invalid_yaml", file: "port: [\n"},
		{name: "negative_timeout", file: "poll_timeout: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeTempConfig(t, tt.file)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
