package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/cyberthreat-atlas/atlas/internal/api"
	"github.com/cyberthreat-atlas/atlas/internal/config"
	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/logging"
	"github.com/cyberthreat-atlas/atlas/internal/metrics"
	"github.com/cyberthreat-atlas/atlas/internal/refresh"
	"github.com/cyberthreat-atlas/atlas/internal/server"
	"github.com/cyberthreat-atlas/atlas/internal/stix"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting atlas")

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConnections = cfg.Database.MaxConnections

	logger.Info("connecting to database")
	db, err := database.Connect(ctx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Non-fatal so the app can start even when migrations fail
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	collector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	handler := api.NewRouter(db, cfg, collector, logger)

	if cfg.Refresh.Enabled {
		importer := refresh.NewImporter(
			stix.NewClient(),
			database.NewAttackGroupRepository(db),
			database.NewTechniqueRepository(db),
			database.NewMalwareRepository(db),
			nil,
			logger,
		)
		svc := refresh.NewService(importer, cfg.Refresh.Interval, logger)
		go svc.Start(ctx)
		defer svc.Stop()
	}

	srv := server.New(cfg.Server, logger, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
