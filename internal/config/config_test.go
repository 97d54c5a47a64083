package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.APIPort)
	assert.True(t, cfg.WorkerEnabled)
	assert.Equal(t, "storyreel.db", cfg.DatabasePath)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "ffmpeg", cfg.FFmpegBin)
	assert.Equal(t, "ffprobe", cfg.FFprobeBin)
	assert.Equal(t, 10, cfg.RenderTimeoutMinutes)
	assert.Equal(t, "openai", cfg.ImageProvider)
	assert.Equal(t, 2, cfg.MaxConcurrentJobs)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("API_PORT", "9000")
	t.Setenv("WORKER_ENABLED", "false")
	t.Setenv("RENDER_TIMEOUT_MINUTES", "25")
	t.Setenv("MAX_CONCURRENT_JOBS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.APIPort)
	assert.False(t, cfg.WorkerEnabled)
	assert.Equal(t, 25, cfg.RenderTimeoutMinutes)
	assert.Equal(t, 8, cfg.MaxConcurrentJobs)
}

func TestLoadRequiresImageProviderKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("IMAGE_PROVIDER", "openai")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	t.Setenv("IMAGE_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadRejectsUnknownImageProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("IMAGE_PROVIDER", "dalle9000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dalle9000")
}

func TestLoadRequiresTTSProvider(t *testing.T) {
	t.Setenv("IMAGE_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narration TTS")
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("STR_KEY", "value")
	assert.Equal(t, "value", getEnv("STR_KEY", "fallback"))
	assert.Equal(t, "fallback", getEnv("STR_KEY_ABSENT", "fallback"))

	t.Setenv("BOOL_KEY", "true")
	assert.True(t, getEnvBool("BOOL_KEY", false))
	t.Setenv("BOOL_KEY", "not-a-bool")
	assert.True(t, getEnvBool("BOOL_KEY", true))

	t.Setenv("INT_KEY", "42")
	assert.Equal(t, 42, getEnvInt("INT_KEY", 7))
	t.Setenv("INT_KEY", "NaN")
	assert.Equal(t, 7, getEnvInt("INT_KEY", 7))
}
