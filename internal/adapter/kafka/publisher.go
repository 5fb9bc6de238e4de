package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/wind-yield-predictor/internal/config"
	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one event per successful prediction.
// It implements predict.Publisher.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	newID   func() string
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured prediction topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	return newPublisher(newWriter(cfg), cfg.KafkaPublishTimeout, logger)
}

// writerBatchTimeout bounds how long a partial batch waits before it is flushed.
const writerBatchTimeout = 10 * time.Millisecond

// newWriter builds a writer that flushes every event on its own. Publish is
// synchronous, so batching would add the full batch timeout to each request.
func newWriter(cfg *config.Config) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaPredictionTopic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		BatchSize:              1,
		BatchTimeout:           writerBatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func newPublisher(w messageWriter, timeout time.Duration, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, timeout: timeout, newID: uuid.NewString, logger: logger}
}

// Publish writes result to the topic, giving up after the configured timeout.
func (p *Publisher) Publish(ctx context.Context, result domain.PredictionResult) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	msg, err := serializeToMessage(newPredictionEvent(p.newID(), result))
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction event: %w", err)
	}
	p.logger.Debug("prediction event published", "id", string(msg.Key))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// predictionEvent is the wire form of a PredictionResult.
type predictionEvent struct {
	ID          string             `json:"id"`
	YieldKWh    string             `json:"yield_kwh"`
	Raw         float64            `json:"raw"`
	Model       string             `json:"model"`
	Columns     []string           `json:"columns"`
	Features    map[string]float64 `json:"features"`
	PredictedAt time.Time          `json:"predicted_at"`
}

func newPredictionEvent(id string, r domain.PredictionResult) predictionEvent {
	features := make(map[string]float64, len(r.Columns))
	for i, col := range r.Columns {
		if i < len(r.Features) {
			features[col] = r.Features[i]
		}
	}
	return predictionEvent{
		ID:          id,
		YieldKWh:    r.Display(),
		Raw:         r.Raw,
		Model:       r.Model,
		Columns:     r.Columns,
		Features:    features,
		PredictedAt: r.PredictedAt,
	}
}

// serializeToMessage marshals a predictionEvent into a Kafka message.
func serializeToMessage(event predictionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "model", Value: []byte(event.Model)},
			{Key: "predicted_at", Value: []byte(event.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}
