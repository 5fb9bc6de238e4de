package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
	"github.com/couchcryptid/wind-yield-predictor/internal/model"
	"github.com/couchcryptid/wind-yield-predictor/internal/observability"
)

// ModelProvider hands out the process-wide model. An absent model is
// reported through the error, never as a nil Predictor with a nil error.
type ModelProvider interface {
	Model(ctx context.Context) (model.Predictor, error)
	Name() string
}

// Publisher announces a successful prediction to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, result domain.PredictionResult) error
}

// Service runs one prediction per call: validate, order, predict, clamp.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	models    ModelProvider
	spec      domain.FeatureSpec
	cache     *lru.Cache[string, float64]
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService creates a Service. cacheSize 0 disables memoization; a nil
// publisher disables event publication.
func NewService(models ModelProvider, spec domain.FeatureSpec, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, cacheSize int) (*Service, error) {
	s := &Service{
		models:    models,
		spec:      spec,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, float64](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Spec returns the required feature order.
func (s *Service) Spec() domain.FeatureSpec { return s.spec }

// ModelName returns the display name of the configured model.
func (s *Service) ModelName() string { return s.models.Name() }

// Predict produces the clamped yield for rec. The model is checked first so
// an absent artifact is reported before any input problem.
func (s *Service) Predict(ctx context.Context, rec domain.InputRecord) (domain.PredictionResult, error) {
	result, err := s.predict(ctx, rec)
	kind := domain.KindOf(err)
	if err != nil {
		s.metrics.Predictions.WithLabelValues(string(kind)).Inc()
		s.logFailure(kind, err)
		return domain.PredictionResult{}, err
	}
	s.metrics.Predictions.WithLabelValues("success").Inc()
	s.metrics.LastYield.Set(result.YieldKWh)
	s.publish(ctx, result)
	return result, nil
}

func (s *Service) predict(ctx context.Context, rec domain.InputRecord) (domain.PredictionResult, error) {
	m, err := s.models.Model(ctx)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	if err := domain.ValidateInputRecord(rec); err != nil {
		return domain.PredictionResult{}, err
	}
	row, err := s.spec.Order(rec)
	if err != nil {
		return domain.PredictionResult{}, err
	}

	raw, err := s.score(ctx, m, row)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return domain.NewPredictionResult(raw, s.spec, row, s.models.Name()), nil
}

// score returns the raw model output for row, consulting the cache first.
func (s *Service) score(ctx context.Context, m model.Predictor, row []float64) (float64, error) {
	key := cacheKey(row)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.PredictionCache.WithLabelValues("hit").Inc()
			return v, nil
		}
		s.metrics.PredictionCache.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	out, err := m.Predict(ctx, [][]float64{row})
	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrFeatureMismatch) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrPrediction, err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("%w: model returned no output", domain.ErrPrediction)
	}
	v := out[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: model returned non-finite output %v", domain.ErrPrediction, v)
	}

	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, nil
}

func (s *Service) publish(ctx context.Context, result domain.PredictionResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, result); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish prediction event failed", "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}

func (s *Service) logFailure(kind domain.ErrorKind, err error) {
	switch kind {
	case domain.KindInvalidInput:
		s.logger.Info("prediction rejected", "kind", kind, "error", err)
	case domain.KindFeatureMismatch:
		s.logger.Warn("prediction rejected", "kind", kind, "error", err, "required", s.spec.String())
	default:
		s.logger.Error("prediction failed", "kind", kind, "error", err)
	}
}

// cacheKey encodes row exactly; strconv's shortest float form round-trips.
func cacheKey(row []float64) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
