package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info().Str("environment", string(cfg.Environment)).Msg("Starting Foodgram API")

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	} else {
		log.Warn().Msg("Redis is not configured; token revocation is in-memory and recipe creation is not rate limited")
	}

	images, err := newImageStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image storage")
	}

	srv := server.New(cfg, db, redisClient, images)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Received signal")
	}

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Server stopped")
}

func newImageStore(cfg *config.Config) (service.ImageStore, error) {
	if cfg.StorageBackend == "s3" {
		s3Config, err := config.NewS3Config(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", s3Config.BucketName).Msg("Storing recipe images in S3")
		return service.NewS3ImageStore(s3Config), nil
	}

	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		return nil, err
	}
	log.Info().Str("root", cfg.MediaRoot).Msg("Storing recipe images on local disk")
	return service.NewLocalImageStore(cfg.MediaRoot, cfg.MediaURL), nil
}
