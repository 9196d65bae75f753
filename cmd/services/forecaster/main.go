package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/sitecast/internal/config"
	"github.com/soltixdb/sitecast/internal/logging"
	"github.com/soltixdb/sitecast/internal/metrics"
	"github.com/soltixdb/sitecast/internal/modelstore"
	"github.com/soltixdb/sitecast/internal/queue"
	"github.com/soltixdb/sitecast/internal/router"
	"github.com/soltixdb/sitecast/internal/services"
	"github.com/soltixdb/sitecast/internal/source"
	"github.com/soltixdb/sitecast/internal/subscriber"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	trainOnStart := flag.Bool("train-on-start", false, "Load records from the configured source and train all groups before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Forecaster service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model store
	store, err := modelstore.New(cfg.Store)
	if err != nil {
		logger.Fatal("Failed to open model store", "type", cfg.Store.Type, "error", err)
	}
	defer func() { _ = store.Close() }()
	logger.Info("Model store ready", "type", cfg.Store.Type, "compression", cfg.Store.Compression)

	// Event publisher, only when a queue is configured
	var events *queue.EventPublisher
	if cfg.Queue.Enabled {
		pub, err := queue.NewPublisher(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL, "error", err)
		}
		events = queue.NewEventPublisher(pub, cfg.Queue.EventSubject)
		defer func() { _ = events.Close() }()
		logger.Info("Queue connection established", "type", cfg.Queue.Type, "event_subject", cfg.Queue.EventSubject)
	}

	m := metrics.New()
	svc := services.NewForecastService(logger, cfg.Forecast, store, events, m)

	restored, err := svc.Restore(ctx)
	if err != nil {
		logger.Error("Failed to restore models", "error", err)
	}
	logger.Info("Models restored", "count", restored)

	if *trainOnStart {
		trainFromSource(ctx, logger, svc, cfg.Source)
	}

	// Observation ingestion
	var sub subscriber.Subscriber
	if cfg.Queue.Enabled {
		sub, err = subscriber.NewSubscriber(cfg.Queue, subscriber.Config{})
		if err != nil {
			logger.Fatal("Failed to create subscriber", "type", cfg.Queue.Type, "error", err)
		}
		ingestor := subscriber.NewIngestor(svc, logger)
		if err := sub.Subscribe(ctx, cfg.Queue.ObservationSubject, ingestor.Handle); err != nil {
			logger.Fatal("Failed to subscribe", "subject", cfg.Queue.ObservationSubject, "error", err)
		}
		logger.Info("Ingesting observations", "subject", cfg.Queue.ObservationSubject)
	}

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	converter := source.NewConverter(cfg.Source.GetLocation(), logger)
	app := router.New(logger, svc, converter, m, *cfg)

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	if sub != nil {
		if err := sub.Close(); err != nil {
			logger.Warn("Failed to close subscriber", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func trainFromSource(ctx context.Context, logger *logging.Logger, svc *services.ForecastService, cfg config.SourceConfig) {
	records, err := source.LoadRecords(ctx, cfg, logger, time.Time{})
	if errors.Is(err, source.ErrNoSource) {
		logger.Warn("train-on-start requested but no source is configured")
		return
	}
	if err != nil {
		logger.Error("Failed to load records", "source", cfg.Type, "error", err)
		return
	}

	report, err := svc.TrainAll(ctx, records)
	if err != nil {
		logger.Error("Startup training failed", "error", err)
		return
	}
	logger.Info("Startup training finished",
		"run_id", report.RunID,
		"trained", report.Trained,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"mean_r2", report.R2.Mean)
}
