package main

import (
	"context"
	"flag"
	"log"
	"time"

	"equiprent/internal/config"
	"equiprent/internal/database"
	"equiprent/internal/pkg/logging"
	"equiprent/internal/repository"

	"go.uber.org/zap"
)

func main() {
	retention := flag.Duration("retention", 7*24*time.Hour, "keep expired or revoked sessions this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logging.Sync(logger)

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-*retention)
	removed, err := repository.NewSessionRepository(db).DeleteStale(ctx, cutoff)
	if err != nil {
		logger.Fatal("session cleanup failed", zap.Error(err))
	}

	logger.Info("auth cleanup completed", zap.Int64("sessions", removed), zap.Time("cutoff", cutoff))
}
