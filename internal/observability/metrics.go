package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the predictor.
type Metrics struct {
	Predictions        *prometheus.CounterVec // labels: outcome={success,model_unavailable,model_load_error,feature_mismatch,invalid_input,prediction_error}
	PredictionDuration prometheus.Histogram
	LastYield          prometheus.Gauge
	ModelLoaded        prometheus.Gauge

	// Memoized raw outputs keyed by the ordered feature row.
	PredictionCache *prometheus.CounterVec // labels: result={hit,miss}

	// Kafka prediction events.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all predictor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Predictions,
		m.PredictionDuration,
		m.LastYield,
		m.ModelLoaded,
		m.PredictionCache,
		m.EventsPublished,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that no registry collects. One-shot
// tools that never serve /metrics use it so repeated runs in one process do
// not panic with "already registered".
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wind_yield",
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wind_yield",
			Name:      "prediction_duration_seconds",
			Help:      "Time from a validated request to a model output.",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		LastYield: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wind_yield",
			Name:      "last_predicted_yield_kwh",
			Help:      "Most recent clamped yield prediction, in kWh over 15 minutes.",
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wind_yield",
			Name:      "model_loaded",
			Help:      "1 when the model artifact loaded successfully, 0 otherwise.",
		}),
		PredictionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wind_yield",
			Name:      "prediction_cache_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wind_yield",
			Name:      "events_published_total",
			Help:      "Prediction events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
