package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// dataSource is the footer attribution for the training data.
const dataSource = "wind farm meteorological and generation records"

type optionView struct {
	Value    string
	Selected bool
}

type fieldView struct {
	Key     string
	Label   string
	Widget  string
	Min     string
	Max     string // empty when unbounded
	Step    string
	Value   string
	Options []optionView
}

type resultView struct {
	Yield string
	Model string
}

type errorView struct {
	Title  string
	Detail string
}

type pageView struct {
	Model         string
	DataSource    string
	TimeFields    []fieldView
	WeatherFields []fieldView
	Result        *resultView
	Error         *errorView
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, s.newPageView(nil))
}

func (s *Server) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		page := s.newPageView(nil)
		page.Error = &errorView{Title: "The form submission could not be read.", Detail: err.Error()}
		s.renderPage(w, http.StatusBadRequest, page)
		return
	}

	submitted := make(map[string]string)
	for _, f := range domain.Catalog() {
		submitted[f.Key] = strings.TrimSpace(r.PostForm.Get(f.Key))
	}
	page := s.newPageView(submitted)

	result, err := s.predictForm(r, submitted)
	if err != nil {
		kind := domain.KindOf(err)
		page.Error = &errorView{Title: kind.Title(), Detail: err.Error()}
		s.renderPage(w, statusFor(kind), page)
		return
	}
	page.Result = &resultView{Yield: result.Display(), Model: result.Model}
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) predictForm(r *http.Request, submitted map[string]string) (domain.PredictionResult, error) {
	rec, err := domain.ParseInputRecord(submitted)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return s.svc.Predict(r.Context(), rec)
}

// newPageView builds the form state. Submitted values, when present, take
// the place of catalog defaults so a failed submission can be corrected.
func (s *Server) newPageView(submitted map[string]string) pageView {
	page := pageView{Model: s.svc.ModelName(), DataSource: dataSource}
	for _, f := range s.svc.Spec().FormFeatures() {
		value, ok := submitted[f.Key]
		if !ok {
			value = f.Format(f.Default)
		}
		fv := newFieldView(f, value)
		if f.Group == domain.GroupTime {
			page.TimeFields = append(page.TimeFields, fv)
		} else {
			page.WeatherFields = append(page.WeatherFields, fv)
		}
	}
	return page
}

func newFieldView(f domain.Feature, value string) fieldView {
	fv := fieldView{
		Key:    f.Key,
		Label:  f.Label,
		Widget: string(f.Widget),
		Min:    formatAttr(f.Min),
		Step:   formatAttr(f.Step),
		Value:  value,
	}
	if f.HasMax() {
		fv.Max = formatAttr(f.Max)
	}
	for _, opt := range f.Options {
		ov := optionView{Value: f.Format(opt)}
		if v, err := strconv.ParseFloat(value, 64); err == nil && v == opt {
			ov.Selected = true
		}
		fv.Options = append(fv.Options, ov)
	}
	return fv
}

func formatAttr(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// renderPage executes into a buffer first so a template failure never
// produces a half-written page.
func (s *Server) renderPage(w http.ResponseWriter, status int, page pageView) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client disconnects are not actionable
}
