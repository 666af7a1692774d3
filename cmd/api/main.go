package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voiceagent-backend/cmd"
	"voiceagent-backend/internal/api"
	"voiceagent-backend/internal/database"
	"voiceagent-backend/internal/history"
	"voiceagent-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	APIPort           string `env:"API_PORT" envDefault:"8002"`
	AudioBucket       string `env:"AUDIO_BUCKET" envDefault:"agent-audio"`
	StorageDir        string `env:"STORAGE_DIR" envDefault:"data/audio"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	RelaxAudioFilter  bool   `env:"RECENT_RELAX_AUDIO_FILTER" envDefault:"true"`
}

func newAudioProvider(cfg APIConfig) (storage.Provider, error) {
	if cfg.S3EndpointURL != "" || cfg.S3AccessKeyID != "" {
		return storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
	}
	return storage.NewLocalProvider(cfg.StorageDir)
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	audio, err := newAudioProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to create audio storage provider: %v", err)
	}
	if err := audio.CreateBucket(context.Background(), cfg.AudioBucket); err != nil {
		log.Fatalf("Failed to create audio bucket: %v", err)
	}

	store := history.NewStore(db, audio, cfg.AudioBucket, history.Options{
		RelaxAudioFilter: cfg.RelaxAudioFilter,
	})

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	apiHandler := api.NewChatHistoryService(store)
	apiHandler.AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
