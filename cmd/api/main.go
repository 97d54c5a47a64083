package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storyreel/storyreel/internal/api"
	"github.com/storyreel/storyreel/internal/config"
	"github.com/storyreel/storyreel/internal/db"
	"github.com/storyreel/storyreel/internal/queue"
	"github.com/storyreel/storyreel/internal/render"
	"github.com/storyreel/storyreel/internal/services"
	"github.com/storyreel/storyreel/internal/worker"
)

func main() {
	log.Println("Starting StoryReel API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Open database
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	log.Println("Database ready")

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Render pipeline
	executor := render.NewExecutor(time.Duration(cfg.RenderTimeoutMinutes) * time.Minute)
	exporter := render.NewExporter(database, executor, render.ExporterConfig{
		TempRoot:   cfg.TempRoot,
		ExportRoot: cfg.ExportRoot,
		StaticRoot: cfg.StaticRoot,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
	})

	// Generative asset providers
	var imageSvc services.ImageService
	if cfg.ImageProvider == "gemini" {
		imageSvc = services.NewGeminiService(cfg.GeminiKey)
		log.Println("Image provider: Gemini")
	} else {
		imageSvc = services.NewOpenAIService(cfg.OpenAIKey)
		log.Println("Image provider: OpenAI")
	}

	var ttsSvc services.TTSService
	if cfg.ElevenLabsKey != "" {
		ttsSvc = services.NewElevenLabsService(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)
		log.Printf("TTS provider: ElevenLabs (voice: %s)", cfg.ElevenLabsVoiceID)
	} else {
		ttsSvc = services.NewOpenAIService(cfg.OpenAIKey)
		log.Println("TTS provider: OpenAI")
	}

	music := services.NewMusicSelector(database, services.KeywordOverlapScorer{})
	generator := services.NewAssetGenerator(imageSvc, ttsSvc, music, database, cfg.StaticRoot)

	// Create API handler
	handler := api.NewHandler(database, q, exporter, generator)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background story rendering...")

		w := worker.New(database, q, exporter)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
