package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
	"github.com/couchcryptid/wind-yield-predictor/internal/model"
)

func TestDemoBooster_PowerCurve(t *testing.T) {
	spec := domain.DefaultFeatureSpec()
	b, err := demoBooster(spec)
	require.NoError(t, err)
	assert.Equal(t, 4, b.NumTrees())
	require.NoError(t, b.CheckSpec(spec))

	row := func(wind float64) []float64 { return []float64{6, 15, 12, 0, wind, wind, wind, wind} }
	out, err := b.Predict(context.Background(), [][]float64{row(1), row(6), row(15)})
	require.NoError(t, err)
	assert.InDelta(t, baseScore+belowCutInYield, out[0], 1e-9)
	assert.InDelta(t, baseScore+rampYield, out[1], 1e-9)
	assert.InDelta(t, baseScore+ratedYield, out[2], 1e-9)
}

func TestDemoBooster_RoundTrips(t *testing.T) {
	spec, err := domain.NewFeatureSpec([]string{domain.FeatureHour, domain.FeatureWind10m})
	require.NoError(t, err)
	b, err := demoBooster(spec)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, model.Encode(&buf, b))
	decoded, err := model.DecodeBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, spec.Names(), decoded.FeatureNames())
	assert.Equal(t, 1, decoded.NumTrees())
}

func TestDemoBooster_NeedsWindFeature(t *testing.T) {
	spec, err := domain.NewFeatureSpec([]string{domain.FeatureHour, domain.FeatureTemperature})
	require.NoError(t, err)
	_, err = demoBooster(spec)
	assert.ErrorContains(t, err, "no wind speed feature")
}
