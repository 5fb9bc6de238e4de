package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/wind-yield-predictor/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/wind-yield-predictor/internal/adapter/kafka"
	"github.com/couchcryptid/wind-yield-predictor/internal/config"
	"github.com/couchcryptid/wind-yield-predictor/internal/model"
	"github.com/couchcryptid/wind-yield-predictor/internal/observability"
	"github.com/couchcryptid/wind-yield-predictor/internal/predict"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Load the model once up front. A failure is not fatal: the form still
	// renders and reports the problem on every submission.
	loader := model.NewLoader(cfg.ModelPath, cfg.Features, logger)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if _, err := loader.Load(ctx); err != nil {
		logger.Warn("serving without a model", "path", cfg.ModelPath, "error", err)
	} else {
		metrics.ModelLoaded.Set(1)
	}

	// Prediction events are feature-flagged via KAFKA_BROKERS.
	var (
		publisher predict.Publisher
		kafkaPub  *kafkaadapter.Publisher
	)
	if cfg.KafkaEnabled {
		kafkaPub = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPub
		logger.Info("kafka prediction events enabled", "topic", cfg.KafkaPredictionTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka prediction events disabled")
	}

	svc, err := predict.NewService(loader, cfg.Features, publisher, logger, metrics, cfg.PredictionCacheSize)
	if err != nil {
		logger.Error("failed to create prediction service", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, loader, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
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
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
