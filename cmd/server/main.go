// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/upscalely/upscale-go/internal/api"
	"github.com/upscalely/upscale-go/internal/api/handlers"
	"github.com/upscalely/upscale-go/internal/config"
	"github.com/upscalely/upscale-go/internal/inference"
	"github.com/upscalely/upscale-go/internal/pipeline"
	"github.com/upscalely/upscale-go/internal/status"
	"github.com/upscalely/upscale-go/internal/storage"
	"github.com/upscalely/upscale-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize the status store
	store, err := status.NewRedisStore(status.RedisConfig{
		URL:      cfg.Status.RedisURL,
		Host:     cfg.Status.RedisHost,
		Port:     cfg.Status.RedisPort,
		Password: cfg.Status.RedisPassword,
		DB:       cfg.Status.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to status store: %v", err)
	}
	defer store.Close()

	// Initialize blob storage
	sink, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		Region:        cfg.Storage.Region,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	// The tiling/precision mode is decided once here, from the deployment
	// environment, not per request.
	mode := inference.SelectMode(cfg.Inference.UseAccelerator)
	if mode.TileSize > 0 {
		if cfg.Inference.TileSize > 0 {
			mode.TileSize = cfg.Inference.TileSize
		}
		if cfg.Inference.TilePad > 0 {
			mode.TilePad = cfg.Inference.TilePad
		}
	}
	engine := inference.NewHTTPEngine(cfg.Inference.URL)
	adapter := inference.NewAdapter(engine, mode, int64(cfg.Inference.AcceleratorSlots))

	// Assemble the pipeline
	p := pipeline.New(adapter, sink, store, pipeline.Config{
		Scale:         cfg.Inference.Scale,
		MaxDimension:  cfg.Limits.MaxDimension,
		JPEGQuality:   cfg.Limits.JPEGQuality,
		FetchTimeout:  time.Duration(cfg.Limits.FetchTimeoutSeconds) * time.Second,
		FetchMaxBytes: cfg.Limits.FetchMaxBytes,
	})

	router := api.NewRouter(&api.Services{
		Upscale: handlers.NewUpscaleHandler(p, store),
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// In-flight pipeline runs get a grace period to reach a terminal state
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
