package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

// maxBodyBytes bounds form and JSON request bodies.
const maxBodyBytes = 64 << 10

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PredictionService runs a single prediction for a collected input record.
type PredictionService interface {
	Predict(ctx context.Context, rec domain.InputRecord) (domain.PredictionResult, error)
	Spec() domain.FeatureSpec
	ModelName() string
}

// Server serves the prediction form, the JSON API, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        PredictionService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the form, API, and operational routes.
func NewServer(addr string, svc PredictionService, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("POST /predict", s.handleFormPredict)
	mux.HandleFunc("GET /api/v1/features", s.handleFeatures)
	mux.HandleFunc("POST /api/v1/predictions", s.handleAPIPredict)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// statusFor maps a failure kind to the HTTP status both the form and the
// API respond with.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindModelUnavailable, domain.KindModelLoad:
		return http.StatusServiceUnavailable
	case domain.KindFeatureMismatch, domain.KindInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
