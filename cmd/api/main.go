package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/mohammadpnp/identity-import/internal/application/user"
	"github.com/mohammadpnp/identity-import/internal/bootstrap"
	"github.com/mohammadpnp/identity-import/internal/config"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/migrations"
	infrafile "github.com/mohammadpnp/identity-import/internal/infrastructure/file"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/repository"
	"github.com/mohammadpnp/identity-import/internal/logging"
	"github.com/mohammadpnp/identity-import/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if cfg.AutoMigrate {
		runner, err := migrations.New(cfg.DatabaseURL, log)
		if err != nil {
			fatal(log, "failed to configure migrations", err)
		}
		if err := runner.Up(context.Background()); err != nil {
			fatal(log, "failed to apply migrations", err)
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		fatal(log, "failed to connect database", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		fatal(log, "failed to create pgx pool", err)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	importMetrics, err := metrics.NewImportMetrics(registry)
	if err != nil {
		fatal(log, "failed to register metrics", err)
	}

	server := bootstrap.NewHTTPServer(db, registry)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	importJobRepo := repository.NewImportJobRepository(db)
	sources := infrafile.NewLocalSource(cfg.Import.BaseDir)
	importer := bootstrap.NewImporter(cfg, db, pool, importMetrics, log)

	worker := app.NewImportWorker(importJobRepo, sources, importer, app.ImportWorkerConfig{
		Workers:       cfg.Import.Workers,
		PollInterval:  cfg.Import.PollInterval,
		LeaseDuration: cfg.Import.Lease,
	}, log)
	worker.Start(workerCtx)

	go func() {
		if err := server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		fatal(log, "graceful shutdown failed", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
