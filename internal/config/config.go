package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabasePath string

	// Redis
	RedisURL string

	// Filesystem layout — passed explicitly into the pipeline, no ambient
	// globals
	StaticRoot string // uploaded + generated assets
	ExportRoot string // finished renders, keyed by entity ID
	TempRoot   string // per-job workspaces

	// External media tool
	FFmpegBin            string
	FFprobeBin           string
	RenderTimeoutMinutes int

	// Providers
	OpenAIKey         string
	GeminiKey         string
	ImageProvider     string // "openai" or "gemini"
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:              getEnv("API_PORT", "8080"),
		WorkerEnabled:        getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:        getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabasePath:         getEnv("DATABASE_PATH", "storyreel.db"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379"),
		StaticRoot:           getEnv("STATIC_ROOT", "static"),
		ExportRoot:           getEnv("EXPORT_ROOT", "exports"),
		TempRoot:             getEnv("TEMP_ROOT", os.TempDir()),
		FFmpegBin:            getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:           getEnv("FFPROBE_BIN", "ffprobe"),
		RenderTimeoutMinutes: getEnvInt("RENDER_TIMEOUT_MINUTES", 10),
		OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
		GeminiKey:            getEnv("GEMINI_API_KEY", ""),
		ImageProvider:        getEnv("IMAGE_PROVIDER", "openai"),
		ElevenLabsKey:        getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:    getEnv("ELEVENLABS_VOICE_ID", ""),
		MaxConcurrentJobs:    getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	switch cfg.ImageProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when IMAGE_PROVIDER=openai")
		}
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when IMAGE_PROVIDER=gemini")
		}
	default:
		return nil, fmt.Errorf("IMAGE_PROVIDER must be \"openai\" or \"gemini\", got %q", cfg.ImageProvider)
	}

	// At least one TTS provider must be configured
	if cfg.ElevenLabsKey == "" && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("either ELEVENLABS_API_KEY or OPENAI_API_KEY is required for narration TTS")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
