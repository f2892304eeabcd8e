package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	jwttoken "idv/internal/jwt_token"
	"idv/internal/platform/config"
	"idv/internal/platform/httpserver"
	"idv/internal/platform/logger"
	"idv/internal/proofing/handler"
	"idv/internal/proofing/service"
	"idv/internal/proofing/wiring"
	dErrors "idv/pkg/domain-errors"
	"idv/pkg/platform/httputil"
)

// main serves the enqueue and poll API. Without Redis the queue only exists
// in this process, so the worker pool runs here too.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := wiring.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	results, err := infra.ResultStore()
	if err != nil {
		return err
	}
	encryptor, err := infra.Encryptor()
	if err != nil {
		return err
	}
	limiter, err := infra.RateLimiter()
	if err != nil {
		return err
	}
	sink, err := infra.AttemptsSink()
	if err != nil {
		return err
	}
	svc, err := service.New(results, infra.Queue(), encryptor,
		service.WithLogger(log),
		service.WithRateLimiter(limiter),
		service.WithAttemptsSink(sink),
	)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "idv", "idv-proofing")
	router := chi.NewRouter()
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := infra.Health(ctx); err != nil {
			log.WarnContext(ctx, "health check failed", "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "dependency unavailable"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	handler.New(svc, log, infra.Metrics, jwttoken.NewJWTServiceAdapter(jwtService)).Register(router)

	if infra.InMemory() {
		pool, err := wiring.Worker(infra)
		if err != nil {
			return err
		}
		go func() {
			if err := pool.Run(ctx); err != nil {
				log.Error("embedded worker stopped", "error", err)
			}
		}()
	}

	return httpserver.Serve(ctx, log, 10*time.Second,
		httpserver.New(cfg.Server.Addr, router),
		httpserver.New(cfg.Server.MetricsAddr, infra.Metrics.Handler()),
	)
}
