package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"idv/internal/platform/config"
	"idv/internal/platform/logger"
	"idv/internal/platform/postgres"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	if db == nil {
		log.Error("DATABASE_URL is empty")
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")
}
