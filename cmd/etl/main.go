package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/geonames"
	httpadapter "github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/ncfile"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/units"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/config"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/observability"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Timezone lookup is feature-flagged via GEONAMES_ENABLED /
	// GEONAMES_USERNAME. Without it only files whose time units already
	// carry a UTC offset can convert.
	var timezone domain.TimezoneService
	if cfg.GeonamesEnabled {
		client := geonames.NewClient(cfg.GeonamesUsername, cfg.GeonamesTimeout, metrics, logger)
		timezone = geonames.NewCachedService(client, cfg.GeonamesCacheSize, metrics)
		logger.Info("geonames timezone lookup enabled", "cache_size", cfg.GeonamesCacheSize, "timeout", cfg.GeonamesTimeout)
	} else {
		logger.Info("geonames timezone lookup disabled")
	}

	converter := pipeline.NewConverter(ncfile.NewStore(), timezone, units.New(), logger)

	var loader pipeline.ManifestLoader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka manifest publishing enabled", "topic", cfg.KafkaManifestTopic)
	}

	p := pipeline.New(converter, loader, logger, metrics, pipeline.Options{
		InputDir:     cfg.InputDir,
		OutputDir:    cfg.OutputDir,
		Overwrite:    cfg.Overwrite,
		ScanInterval: cfg.ScanInterval,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the conversion pipeline. With a zero scan interval this is a
	// one-shot batch run and the service exits when it finishes.
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-runDone:
		if err != nil {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		} else {
			logger.Info("pipeline finished")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}
