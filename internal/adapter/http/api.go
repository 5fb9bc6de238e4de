package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

type predictionRequest struct {
	Features map[string]float64 `json:"features"`
}

type predictionResponse struct {
	YieldKWh    string    `json:"yield_kwh"`
	Raw         float64   `json:"raw"`
	Model       string    `json:"model"`
	Columns     []string  `json:"columns"`
	Features    []float64 `json:"features"`
	PredictedAt time.Time `json:"predicted_at"`
}

type errorResponse struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Error string `json:"error"`
}

type featureResponse struct {
	Key     string    `json:"key"`
	Label   string    `json:"label"`
	Group   string    `json:"group"`
	Widget  string    `json:"widget"`
	Min     float64   `json:"min"`
	Max     *float64  `json:"max"` // null when unbounded
	Step    float64   `json:"step"`
	Default float64   `json:"default"`
	Options []float64 `json:"options,omitempty"`
}

type featuresResponse struct {
	Model    string            `json:"model"`
	Required []string          `json:"required"`
	Features []featureResponse `json:"features"`
}

func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	spec := s.svc.Spec()
	resp := featuresResponse{Model: s.svc.ModelName(), Required: spec.Names()}
	for _, f := range spec.FormFeatures() {
		fr := featureResponse{
			Key:     f.Key,
			Label:   f.Label,
			Group:   string(f.Group),
			Widget:  string(f.Widget),
			Min:     f.Min,
			Step:    f.Step,
			Default: f.Default,
			Options: f.Options,
		}
		if f.HasMax() {
			m := f.Max
			fr.Max = &m
		}
		resp.Features = append(resp.Features, fr)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	req, err := decodePredictionRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Kind:  "bad_request",
			Title: "The request body could not be decoded.",
			Error: err.Error(),
		})
		return
	}

	result, err := s.svc.Predict(r.Context(), domain.InputRecord(req.Features))
	if err != nil {
		kind := domain.KindOf(err)
		writeJSON(w, statusFor(kind), errorResponse{Kind: string(kind), Title: kind.Title(), Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, predictionResponse{
		YieldKWh:    result.Display(),
		Raw:         result.Raw,
		Model:       result.Model,
		Columns:     result.Columns,
		Features:    result.Features,
		PredictedAt: result.PredictedAt,
	})
}

func decodePredictionRequest(w http.ResponseWriter, r *http.Request) (predictionRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req predictionRequest
	if err := dec.Decode(&req); err != nil {
		return predictionRequest{}, fmt.Errorf("decode prediction request: %w", err)
	}
	if req.Features == nil {
		return predictionRequest{}, errors.New(`decode prediction request: "features" is required`)
	}
	return req, nil
}
