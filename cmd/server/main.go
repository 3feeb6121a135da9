package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/intake/api"
	dbfs "github.com/garnizeh/intake/db"
	"github.com/garnizeh/intake/internal/config"
	"github.com/garnizeh/intake/internal/db"
	"github.com/garnizeh/intake/internal/intake"
	"github.com/garnizeh/intake/internal/jobs"
	"github.com/garnizeh/intake/internal/logging"
	"github.com/garnizeh/intake/internal/ratelimit"
	"github.com/garnizeh/intake/internal/repository/sqlite"
	"github.com/garnizeh/intake/internal/storage"
	"github.com/garnizeh/intake/internal/upload"
	"github.com/garnizeh/intake/internal/validation"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting intake server", slog.String("version", version), slog.String("build_time", buildTime))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	store := sqlite.New(conn, logger)

	blobs, err := storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.PublicBaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to open upload store: %v", err)
	}
	guard := upload.NewGuard(blobs, cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions, logger)
	reaper := upload.NewReaper(store, blobs, logger)

	pool := jobs.NewWorkerPool(jobs.NewRepository(conn), map[string]jobs.Handler{
		upload.ReapJobType: reaper.Handler(),
	}, logger, cfg.Workers.Count, cfg.Workers.PollInterval)
	pool.Start(ctx)

	schemas, err := validation.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load schemas: %v", err)
	}

	svc := intake.New(intake.Options{
		Schemas:         schemas,
		Store:           store,
		Guard:           guard,
		Blobs:           blobs,
		Scheduler:       pool,
		OrphanRetention: cfg.Upload.OrphanRetention,
		UploadBaseURL:   cfg.Upload.PublicBaseURL,
		Logger:          logger,
	})

	limiter := ratelimit.New(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, 10*time.Minute)
	limiter.Start(ctx, time.Minute)

	handler := api.SetupRoutes(api.Deps{
		Config:    cfg,
		Version:   version,
		BuildTime: buildTime,
		Store:     store,
		Intake:    svc,
		Limiter:   limiter,
		Ping:      conn.GetConn().PingContext,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}

	cancel()
	pool.Stop()
	limiter.Stop()

	if err := conn.Close(); err != nil {
		logger.Error("error closing DB", slog.Any("err", err))
	}

	logger.Info("server exited")
}
