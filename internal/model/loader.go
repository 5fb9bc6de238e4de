package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/couchcryptid/wind-yield-predictor/internal/domain"
)

// Loader reads the model artifact at most once per process and hands out the
// decoded Booster to every caller. A failed load is remembered too: the
// artifact is not retried until the process restarts.
type Loader struct {
	path   string
	spec   domain.FeatureSpec
	logger *slog.Logger

	readFile func(name string) ([]byte, error)

	once    sync.Once
	booster *Booster
	err     error
}

// NewLoader creates a Loader for the artifact at path. The decoded model must
// declare inputs matching spec.
func NewLoader(path string, spec domain.FeatureSpec, logger *slog.Logger) *Loader {
	return &Loader{
		path:     path,
		spec:     spec,
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// Load decodes the artifact on first call and returns the cached outcome on
// every later call. A missing file is domain.ErrModelUnavailable; anything
// else, including a column mismatch with the required features, is domain.ErrModelLoad.
func (l *Loader) Load(_ context.Context) (*Booster, error) {
	l.once.Do(func() {
		l.booster, l.err = l.load()
	})
	return l.booster, l.err
}

// Model implements the predictor lookup used by the prediction service.
func (l *Loader) Model(ctx context.Context) (Predictor, error) {
	b, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Name returns the display name derived from the artifact file name.
func (l *Loader) Name() string { return DisplayName(l.path) }

// Path returns the configured artifact path.
func (l *Loader) Path() string { return l.path }

// CheckReadiness returns nil once a model is loaded.
func (l *Loader) CheckReadiness(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

func (l *Loader) load() (*Booster, error) {
	data, err := l.readFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Error("model file not found", "path", l.path)
		return nil, fmt.Errorf("%w: model file %s not found; make sure it exists and the name is correct", domain.ErrModelUnavailable, l.path)
	}
	if err != nil {
		l.logger.Error("read model file failed", "path", l.path, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}

	b, err := DecodeBytes(data)
	if err != nil {
		l.logger.Error("decode model failed", "path", l.path, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}
	if err := b.CheckSpec(l.spec); err != nil {
		l.logger.Error("model inputs do not match required features",
			"path", l.path,
			"required", l.spec.String(),
			"declared", strings.Join(b.FeatureNames(), ","),
			"num_feature", b.NumFeature(),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}

	l.logger.Info("model loaded",
		"path", l.path,
		"objective", b.Objective(),
		"trees", b.NumTrees(),
		"num_feature", b.NumFeature(),
	)
	return b, nil
}

// DisplayName strips the directory, extension and a trailing "_best_model"
// from an artifact path: "models/XGBoost_best_model.json" becomes "XGBoost".
func DisplayName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "_best_model")
	if base == "" || base == "." {
		return "model"
	}
	return base
}
