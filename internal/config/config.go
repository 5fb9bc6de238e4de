package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifact and the column order it was trained on.
	ModelPath           string
	Features            domain.FeatureSpec
	PredictionCacheSize int

	// Optional Kafka publication of prediction events.
	KafkaEnabled         bool
	KafkaBrokers         []string
	KafkaPredictionTopic string
	KafkaPublishTimeout  time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	publishTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("KAFKA_PUBLISH_TIMEOUT", "2s"))
	if err != nil || publishTimeout <= 0 {
		return nil, errors.New("invalid KAFKA_PUBLISH_TIMEOUT")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	features, err := parseFeatures()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ModelPath:           sharedcfg.EnvOrDefault("MODEL_PATH", "XGBoost_best_model.json"),
		Features:            features,
		PredictionCacheSize: cacheSize,

		KafkaEnabled:         len(brokers) > 0,
		KafkaBrokers:         brokers,
		KafkaPredictionTopic: sharedcfg.EnvOrDefault("KAFKA_PREDICTION_TOPIC", "wind-yield-predictions"),
		KafkaPublishTimeout:  publishTimeout,
	}

	if cfg.ModelPath == "" {
		return nil, errors.New("MODEL_PATH is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaPredictionTopic == "" {
		return nil, errors.New("KAFKA_PREDICTION_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseFeatures() (domain.FeatureSpec, error) {
	spec, err := domain.ParseFeatureSpec(os.Getenv("REQUIRED_FEATURES"))
	if err != nil {
		return domain.FeatureSpec{}, fmt.Errorf("invalid REQUIRED_FEATURES: %w", err)
	}
	return spec, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("PREDICTION_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid PREDICTION_CACHE_SIZE")
	}
	return n, nil
}
