package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/wind-yield-predictor/internal/adapter/http"
	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
	"github.com/couchcryptid/wind-yield-predictor/internal/model"
	"github.com/couchcryptid/wind-yield-predictor/internal/observability"
	"github.com/couchcryptid/wind-yield-predictor/internal/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePath = "../../model/testdata/XGBoost_best_model.json"

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fakeService struct {
	err error
}

func (f *fakeService) Predict(context.Context, domain.InputRecord) (domain.PredictionResult, error) {
	return domain.PredictionResult{}, f.err
}

func (f *fakeService) Spec() domain.FeatureSpec { return domain.DefaultFeatureSpec() }

func (f *fakeService) ModelName() string { return "XGBoost" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &fakeService{}, &mockReadiness{err: readyErr}, discardLogger())
}

// newModelServer wires the real loader and service around the model at path.
func newModelServer(t *testing.T, path string) *httpadapter.Server {
	t.Helper()
	loader := model.NewLoader(path, domain.DefaultFeatureSpec(), discardLogger())
	svc, err := predict.NewService(loader, domain.DefaultFeatureSpec(), nil, discardLogger(), observability.NewMetricsForTesting(), 0)
	require.NoError(t, err)
	return httpadapter.NewServer(":0", svc, loader, discardLogger())
}

func sampleForm() url.Values {
	return url.Values{
		domain.FeatureYear:    {"2023"},
		domain.FeatureMonth:   {"6"},
		domain.FeatureDay:     {"15"},
		domain.FeatureHour:    {"12"},
		domain.FeatureMinute:  {"0"},
		domain.FeatureWind70m: {"5.0"},
		domain.FeatureWind50m: {"4.5"},
		domain.FeatureWind30m: {"4.0"},
		domain.FeatureWind10m: {"3.5"},
	}
}

func postForm(srv http.Handler, form url.Values) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.ServeHTTP(rec, req)
	return rec
}

func postJSON(srv http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predictions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.ServeHTTP(rec, req)
	return rec
}

// --- operational endpoints ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestReadyzReportsMissingModel(t *testing.T) {
	srv := newModelServer(t, "testdata/absent.json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- form ---

func TestFormRendersDefaults(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `name="year"`)
	assert.Contains(t, body, `type="range" id="month" name="month" min="1" max="12" step="1" value="6"`)
	assert.Contains(t, body, `<option value="0" selected>0</option>`)
	assert.Contains(t, body, `<option value="45">45</option>`)
	assert.Contains(t, body, `type="number" id="wind_speed_70m" name="wind_speed_70m" min="0" step="0.1" value="5.0"`)
	assert.Contains(t, body, "Model: XGBoost")
	assert.NotContains(t, body, `name="temperature"`)
	assert.NotContains(t, body, `name="humidity"`)
	assert.NotContains(t, body, "Predicted yield (kWh)")
}

func TestFormUnknownPathIs404(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormPredictSuccess(t *testing.T) {
	srv := newModelServer(t, fixturePath)
	rec := postForm(srv, sampleForm())

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Predicted yield (kWh)")
	assert.Contains(t, body, `<div class="metric-value" id="yield">17.3456</div>`)
	assert.Contains(t, body, "Prediction complete.")
	assert.Contains(t, body, "next <strong>15 minutes</strong>")
	assert.NotContains(t, body, `class="banner error"`)
}

func TestFormPredictCalmWindClampsToZero(t *testing.T) {
	srv := newModelServer(t, fixturePath)
	form := sampleForm()
	form.Set(domain.FeatureWind70m, "2.0")
	form.Set(domain.FeatureWind10m, "1.0")

	rec := postForm(srv, form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="yield">0.0000</div>`)
}

func TestFormPredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		edit   func(url.Values)
		status int
		want   []string
	}{
		{
			name:   "missing feature",
			path:   fixturePath,
			edit:   func(f url.Values) { f.Set(domain.FeatureWind30m, ""); f.Set(domain.FeatureWind70m, "7.25") },
			status: http.StatusUnprocessableEntity,
			want: []string{
				domain.KindFeatureMismatch.Title(),
				"missing inputs for wind_speed_30m",
				`name="wind_speed_70m" min="0" step="0.1" value="7.25"`,
			},
		},
		{
			name:   "minute off grid",
			path:   fixturePath,
			edit:   func(f url.Values) { f.Set(domain.FeatureMinute, "20") },
			status: http.StatusUnprocessableEntity,
			want:   []string{domain.KindInvalidInput.Title(), "minute must be one of"},
		},
		{
			name:   "not a number",
			path:   fixturePath,
			edit:   func(f url.Values) { f.Set(domain.FeatureDay, "abc") },
			status: http.StatusUnprocessableEntity,
			want:   []string{domain.KindInvalidInput.Title(), `value="abc"`},
		},
		{
			name:   "model file absent",
			path:   "testdata/absent.json",
			edit:   func(url.Values) {},
			status: http.StatusServiceUnavailable,
			want:   []string{domain.KindModelUnavailable.Title()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newModelServer(t, tt.path)
			form := sampleForm()
			tt.edit(form)

			rec := postForm(srv, form)

			assert.Equal(t, tt.status, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, `class="banner error"`)
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			assert.NotContains(t, body, "Prediction complete.")
		})
	}
}

func TestFormPredictGenericFailureIs500(t *testing.T) {
	srv := httpadapter.NewServer(":0", &fakeService{err: errors.New("tree walk exploded")}, &mockReadiness{}, discardLogger())
	rec := postForm(srv, sampleForm())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.KindPrediction.Title())
	assert.Contains(t, rec.Body.String(), "tree walk exploded")
}

// --- JSON API ---

type apiResult struct {
	YieldKWh string    `json:"yield_kwh"`
	Raw      float64   `json:"raw"`
	Model    string    `json:"model"`
	Columns  []string  `json:"columns"`
	Features []float64 `json:"features"`
	Kind     string    `json:"kind"`
	Error    string    `json:"error"`
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) apiResult {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out apiResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const sampleJSON = `{"features":{"year":2023,"month":6,"day":15,"hour":12,"minute":0,
	"wind_speed_70m":5.0,"wind_speed_50m":4.5,"wind_speed_30m":4.0,"wind_speed_10m":3.5}}`

func TestAPIPredictSuccess(t *testing.T) {
	srv := newModelServer(t, fixturePath)
	rec := postJSON(srv, sampleJSON)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeResult(t, rec)
	assert.Equal(t, "17.3456", out.YieldKWh)
	assert.InDelta(t, 17.3456, out.Raw, 1e-5)
	assert.Equal(t, "XGBoost", out.Model)
	assert.Equal(t, domain.DefaultRequiredFeatures, out.Columns)
	assert.Equal(t, []float64{6, 15, 12, 0, 5.0, 4.5, 4.0, 3.5}, out.Features)
}

func TestAPIPredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{"missing feature", fixturePath, `{"features":{"month":6}}`, http.StatusUnprocessableEntity, "feature_mismatch"},
		{"out of range", fixturePath, strings.Replace(sampleJSON, `"hour":12`, `"hour":24`, 1), http.StatusUnprocessableEntity, "invalid_input"},
		{"model absent", "testdata/absent.json", sampleJSON, http.StatusServiceUnavailable, "model_unavailable"},
		{"malformed json", fixturePath, `{"features":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", fixturePath, `{"inputs":{}}`, http.StatusBadRequest, "bad_request"},
		{"no features", fixturePath, `{}`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newModelServer(t, tt.path)
			rec := postJSON(srv, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			out := decodeResult(t, rec)
			assert.Equal(t, tt.kind, out.Kind)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestAPIPredictGenericFailureIs500(t *testing.T) {
	srv := httpadapter.NewServer(":0", &fakeService{err: errors.New("boom")}, &mockReadiness{}, discardLogger())
	rec := postJSON(srv, sampleJSON)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "prediction_error", decodeResult(t, rec).Kind)
}

func TestAPIFeatures(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/features", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Model    string   `json:"model"`
		Required []string `json:"required"`
		Features []struct {
			Key     string    `json:"key"`
			Widget  string    `json:"widget"`
			Max     *float64  `json:"max"`
			Options []float64 `json:"options"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "XGBoost", body.Model)
	assert.Equal(t, domain.DefaultRequiredFeatures, body.Required)
	require.Len(t, body.Features, 9)

	byKey := map[string]int{}
	for i, f := range body.Features {
		byKey[f.Key] = i
	}
	year := body.Features[byKey[domain.FeatureYear]]
	require.NotNil(t, year.Max)
	assert.Equal(t, 2030.0, *year.Max)

	assert.Nil(t, body.Features[byKey[domain.FeatureWind70m]].Max)

	minute := body.Features[byKey[domain.FeatureMinute]]
	assert.Equal(t, "select", minute.Widget)
	assert.Equal(t, []float64{0, 15, 30, 45}, minute.Options)
	assert.NotContains(t, rec.Body.String(), "precision")
}
