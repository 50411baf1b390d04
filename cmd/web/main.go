package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/mediscan/internal/application"
	appchat "github.com/bryanwahyu/mediscan/internal/application/chatsvc"
	appreports "github.com/bryanwahyu/mediscan/internal/application/reports"
	appreview "github.com/bryanwahyu/mediscan/internal/application/review"
	appsuggest "github.com/bryanwahyu/mediscan/internal/application/suggest"
	"github.com/bryanwahyu/mediscan/internal/config"
	"github.com/bryanwahyu/mediscan/internal/infra/backend"
	"github.com/bryanwahyu/mediscan/internal/infra/httpserver"
	"github.com/bryanwahyu/mediscan/internal/infra/storage"
	"github.com/bryanwahyu/mediscan/internal/middleware"
)

func main() {
	// .env optional, buat dev lokal
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") != "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()

	// client ke backend analisis
	client := backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout(), logger)

	clock := application.SystemClock{}

	// init services
	reviewSvc := appreview.New(client, client, client, clock, logger)
	chatSvc := appchat.New(client, clock, cfg.Chat.WindowSize, logger)
	suggestSvc := appsuggest.New(client, cfg.SuggestDebounce(), logger)

	reportSvc := &appreports.Service{
		Generator: client,
		Clock:     clock,
		Log:       logger,
	}

	checkers := map[string]middleware.HealthChecker{
		"backend": &middleware.BackendHealthChecker{URL: cfg.Backend.BaseURL + "/health"},
	}

	// init minio (opsional, cuma buat arsip report)
	if cfg.ArchiveEnabled() {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		reportSvc.Archive = store
		checkers["storage"] = middleware.CheckerFunc(store.Check)
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 10))
	mux.Mount("/", httpserver.NewRouter(reviewSvc, chatSvc, suggestSvc, reportSvc, cfg.Server.CORSOrigins, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// run server
	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
}
