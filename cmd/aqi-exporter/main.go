package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/montreal-aqi/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/montreal-aqi/internal/adapter/kafka"
	"github.com/couchcryptid/montreal-aqi/internal/config"
	"github.com/couchcryptid/montreal-aqi/internal/observability"
	"github.com/couchcryptid/montreal-aqi/internal/pipeline"
	"github.com/couchcryptid/montreal-aqi/internal/service"
	"github.com/couchcryptid/montreal-aqi/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	logger.Info("starting aqi exporter", "version", version.String())

	svc, err := service.NewFromConfig(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to build station service", "error", err)
		os.Exit(1)
	}
	if cfg.CacheTTL > 0 {
		logger.Info("open data cache enabled", "ttl", cfg.CacheTTL)
	} else {
		logger.Info("open data cache disabled")
	}

	// Publishing is feature-flagged via KAFKA_BROKERS.
	var (
		loader pipeline.BatchLoader
		writer *kafkaadapter.Writer
	)
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		loader = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(svc, loader, cfg.Stations, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, svc, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start poller.
	go func() {
		if err := p.Run(ctx, cfg.PollInterval); err != nil {
			logger.Error("pipeline error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

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
}
