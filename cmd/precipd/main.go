package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/precip-history-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/precip-history-service/internal/adapter/kafka"
	"github.com/couchcryptid/precip-history-service/internal/adapter/nws"
	"github.com/couchcryptid/precip-history-service/internal/config"
	"github.com/couchcryptid/precip-history-service/internal/history"
	"github.com/couchcryptid/precip-history-service/internal/observability"
	"github.com/couchcryptid/precip-history-service/internal/scheduler"
	"github.com/couchcryptid/precip-history-service/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source := nws.NewClient(cfg, logger)

	// Attribute publishing is feature-flagged via KAFKA_ENABLED. With it off,
	// attributes stay reachable through the HTTP API and metrics.
	var publisher tracker.AttributePublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka publishing disabled")
	}

	store := history.NewStore()
	trk := tracker.New(cfg, store, source, publisher, logger, metrics)

	sched := scheduler.New(cfg, trk, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, trk, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the poll and threshold jobs.
	if err := sched.Start(); err != nil {
		logger.Error("scheduler start error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
