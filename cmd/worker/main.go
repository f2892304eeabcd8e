package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idv/internal/platform/config"
	"idv/internal/platform/httpserver"
	"idv/internal/platform/logger"
	"idv/internal/proofing/wiring"
)

// main consumes proofing and shadow-mode jobs until SIGINT or SIGTERM.
// In-flight jobs still write their terminal record after cancellation.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := wiring.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer infra.Close()
	if infra.InMemory() {
		log.Error("REDIS_URL is required for a standalone worker")
		os.Exit(1)
	}

	pool, err := wiring.Worker(infra)
	if err != nil {
		log.Error("failed to build worker", "error", err)
		os.Exit(1)
	}

	served := make(chan error, 1)
	go func() {
		served <- httpserver.Serve(ctx, log, 5*time.Second, httpserver.New(cfg.Server.MetricsAddr, infra.Metrics.Handler()))
	}()

	log.Info("worker started", "concurrency", cfg.Proofing.WorkerConcurrency)
	if err := pool.Run(ctx); err != nil {
		log.Error("worker stopped", "error", err)
	}
	stop()
	if err := <-served; err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
