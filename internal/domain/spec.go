package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultRequiredFeatures is the column order the shipped model was trained on.
var DefaultRequiredFeatures = []string{
	FeatureMonth,
	FeatureDay,
	FeatureHour,
	FeatureMinute,
	FeatureWind70m,
	FeatureWind50m,
	FeatureWind30m,
	FeatureWind10m,
}

// InputRecord maps feature keys to operator-supplied values. It is built
// fresh for every request and may contain features the model does not use.
type InputRecord map[string]float64

// FeatureSpec is the ordered list of features the model requires.
// The zero value is empty; build one with NewFeatureSpec or DefaultFeatureSpec.
type FeatureSpec struct {
	names []string
}

// NewFeatureSpec validates names against the catalog. Every name must be a
// known feature and appear exactly once.
func NewFeatureSpec(names []string) (FeatureSpec, error) {
	if len(names) == 0 {
		return FeatureSpec{}, fmt.Errorf("feature spec is empty")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := LookupFeature(n); !ok {
			return FeatureSpec{}, fmt.Errorf("unknown feature %q", n)
		}
		if seen[n] {
			return FeatureSpec{}, fmt.Errorf("duplicate feature %q", n)
		}
		seen[n] = true
	}
	return FeatureSpec{names: slices.Clone(names)}, nil
}

// ParseFeatureSpec reads a comma-separated feature list. A blank list selects
// the default spec.
func ParseFeatureSpec(list string) (FeatureSpec, error) {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return DefaultFeatureSpec(), nil
	}
	return NewFeatureSpec(names)
}

// DefaultFeatureSpec returns the feature order of the shipped model.
func DefaultFeatureSpec() FeatureSpec {
	return FeatureSpec{names: slices.Clone(DefaultRequiredFeatures)}
}

// Names returns the required feature keys in model column order.
func (s FeatureSpec) Names() []string { return slices.Clone(s.names) }

// Len returns the number of required features.
func (s FeatureSpec) Len() int { return len(s.names) }

// Requires reports whether key is a required feature.
func (s FeatureSpec) Requires(key string) bool { return slices.Contains(s.names, key) }

// Index returns the column position of key, or -1.
func (s FeatureSpec) Index(key string) int { return slices.Index(s.names, key) }

// Missing lists the required features absent from rec, in spec order.
func (s FeatureSpec) Missing(rec InputRecord) []string {
	var missing []string
	for _, n := range s.names {
		if _, ok := rec[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Order returns rec's values in spec order. Extra keys in rec are dropped.
// A missing required feature yields a *MismatchError.
func (s FeatureSpec) Order(rec InputRecord) ([]float64, error) {
	if missing := s.Missing(rec); len(missing) > 0 {
		return nil, &MismatchError{Missing: missing}
	}
	row := make([]float64, len(s.names))
	for i, n := range s.names {
		row[i] = rec[n]
	}
	return row, nil
}

// CheckColumns compares the required order against the column names a model artifact
// declares. Names must match exactly, in order.
func (s FeatureSpec) CheckColumns(columns []string) error {
	if slices.Equal(s.names, columns) {
		return nil
	}
	return &MismatchError{Expected: s.Names(), Found: slices.Clone(columns)}
}

// CheckWidth compares the number of required features against a model's input width, for
// artifacts that do not carry column names.
func (s FeatureSpec) CheckWidth(n int) error {
	if n == len(s.names) {
		return nil
	}
	return &MismatchError{Expected: s.Names(), Found: []string{strconv.Itoa(n) + " unnamed columns"}}
}

func (s FeatureSpec) String() string { return strings.Join(s.names, ",") }

// FormFeatures returns the catalog entries the form renders for s: every time
// feature, and the weather features s requires.
func (s FeatureSpec) FormFeatures() []Feature {
	var out []Feature
	for _, f := range catalog {
		if f.Group == GroupTime || s.Requires(f.Key) {
			out = append(out, f)
		}
	}
	return out
}
