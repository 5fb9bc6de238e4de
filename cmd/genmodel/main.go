// Command genmodel writes a small demonstration model in XGBoost JSON format.
// Each wind speed feature in the required order gets one tree shaped like a
// turbine power curve (nothing below cut-in, a ramp, then rated output), so
// the web form and CLI can be exercised without a trained artifact.
//
// Usage:
//
//	go run ./cmd/genmodel -out XGBoost_best_model.json
//	go run ./cmd/genmodel -out demo.json -features hour,wind_speed_70m,wind_speed_10m
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
	"github.com/couchcryptid/wind-yield-predictor/internal/model"
)

// Power curve breakpoints in m/s and the yield, in kWh per 15 minutes, each
// segment contributes when every wind feature agrees.
const (
	cutInSpeed = 3.0
	ratedSpeed = 12.0

	belowCutInYield = -1.0
	rampYield       = 18.0
	ratedYield      = 42.0
	baseScore       = 0.5
)

var windFeatures = []string{
	domain.FeatureWind70m,
	domain.FeatureWind50m,
	domain.FeatureWind30m,
	domain.FeatureWind10m,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "XGBoost_best_model.json", "output path for the model artifact")
	features := flag.String("features", "", "comma-separated feature order (default: the shipped order)")
	flag.Parse()

	spec, err := domain.ParseFeatureSpec(*features)
	if err != nil {
		return fmt.Errorf("invalid -features: %w", err)
	}

	b, err := demoBooster(spec)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := model.Encode(&buf, b); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	log.Printf("wrote %s: %d trees over %s", *out, b.NumTrees(), spec)
	return nil
}

// demoBooster builds one power curve tree per wind feature in spec. Leaf
// values are split evenly across the trees so the ensemble output stays on
// the same scale whatever the number of wind inputs.
func demoBooster(spec domain.FeatureSpec) (*model.Booster, error) {
	var cols []int
	for i, name := range spec.Names() {
		if slices.Contains(windFeatures, name) {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("feature order %s has no wind speed feature", spec)
	}

	share := float64(len(cols))
	trees := make([]model.Tree, 0, len(cols))
	for _, col := range cols {
		trees = append(trees, model.Tree{Nodes: []model.Node{
			{Feature: col, Threshold: cutInSpeed, Left: 1, Right: 2, DefaultLeft: true},
			{Left: -1, Right: -1, Value: float32(belowCutInYield / share)},
			{Feature: col, Threshold: ratedSpeed, Left: 3, Right: 4},
			{Left: -1, Right: -1, Value: float32(rampYield / share)},
			{Left: -1, Right: -1, Value: float32(ratedYield / share)},
		}})
	}

	return model.NewBooster(model.BoosterParams{
		Objective:    model.ObjectiveSquaredError,
		BaseScore:    baseScore,
		NumFeature:   spec.Len(),
		FeatureNames: spec.Names(),
		Trees:        trees,
	})
}
