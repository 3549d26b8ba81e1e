package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Meridian-SCM/Segment/internal/api"
	"github.com/Meridian-SCM/Segment/internal/config"
	"github.com/Meridian-SCM/Segment/internal/evaluator"
	"github.com/Meridian-SCM/Segment/internal/events"
	"github.com/Meridian-SCM/Segment/internal/registry"
	"github.com/Meridian-SCM/Segment/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Profile registry; every configured profile must pass governance
	// validation before the service accepts traffic.
	reg := registry.New()
	for _, p := range cfg.Scoring.Profiles {
		if err := reg.Put(p); err != nil {
			logger.Error("invalid weight profile", "business_unit", p.BusinessUnit, "error", err)
			os.Exit(1)
		}
	}
	if !reg.Has(registry.DefaultBusinessUnit) {
		logger.Warn("no combined fallback profile configured; unknown business units will fail scoring")
	}
	logger.Info("profiles loaded", "business_units", reg.BusinessUnits())

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// NATS (optional)
	var eventsClient events.Client
	if cfg.Nats.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Nats.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to nats")
		}
	}

	// Evaluation engine
	eval := evaluator.New(db, eventsClient, reg, cfg, logger)
	eval.SetupSubscriptions(ctx)
	logger.Info("evaluator ready", "workers", cfg.Evaluation.Workers)

	// API server
	router := api.NewRouter(db, eventsClient, reg, eval, cfg.Segmentation.Targets, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
