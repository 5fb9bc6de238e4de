package domain

import (
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// YieldDecimals is the number of decimal places a yield is displayed with.
const YieldDecimals = 4

// PredictionResult is the outcome of one successful prediction.
type PredictionResult struct {
	YieldKWh    float64   `json:"yield_kwh"` // raw output floored at zero
	Raw         float64   `json:"raw"`
	Columns     []string  `json:"columns"`
	Features    []float64 `json:"features"` // values in Columns order
	Model       string    `json:"model"`
	PredictedAt time.Time `json:"predicted_at"`
}

// NewPredictionResult builds a result from the raw model output for row.
func NewPredictionResult(raw float64, spec FeatureSpec, row []float64, model string) PredictionResult {
	return PredictionResult{
		YieldKWh:    ClampYield(raw),
		Raw:         raw,
		Columns:     spec.Names(),
		Features:    slices.Clone(row),
		Model:       model,
		PredictedAt: clock.Now().UTC(),
	}
}

// Display renders the yield with four decimal places.
func (r PredictionResult) Display() string {
	return FormatYield(r.YieldKWh)
}

// ClampYield floors v at zero. NaN is treated as no yield.
func ClampYield(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	return v
}

// FormatYield renders v as a fixed four-decimal string.
func FormatYield(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', YieldDecimals, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(YieldDecimals)
}
