package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/rembg/rembg"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ENVIRONMENT", "LOG_LEVEL", "REMBG_THRESHOLD", "PORT", "GREENSCREEN_FILES", "WRITE_TIMEOUT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 30, cfg.Threshold)
	assert.Equal(t, 120, cfg.GreenMaxRed)
	assert.Equal(t, 180, cfg.GreenMinGreen)
	assert.Equal(t, 120, cfg.GreenMaxBlue)
	assert.Equal(t, rembg.DefaultGreenBounds, cfg.GreenBounds())
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DefaultGreenScreenFiles, cfg.GreenScreenList())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("REMBG_THRESHOLD", "12")
	t.Setenv("PORT", "9000")
	t.Setenv("GREENSCREEN_FILES", "a.png| b.png |")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Threshold)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"a.png", "b.png"}, cfg.GreenScreenList())
}

func TestLoad_DotEnvFile(t *testing.T) {
	const key = "GREEN_MAX_BLUE"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# test\nGREEN_MAX_BLUE=90\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.GreenMaxBlue)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown environment", "ENVIRONMENT", "moon"},
		{"port out of range", "PORT", "70000"},
		{"negative threshold", "REMBG_THRESHOLD", "-1"},
		{"bound out of range", "GREEN_MIN_GREEN", "300"},
		{"not a number", "REMBG_THRESHOLD", "abc"},
		{"zero burst with rate limit", "RATE_LIMIT_BURST", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
			assert.Error(t, err)
		})
	}
}
