package domain

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Feature keys understood by the form.
const (
	FeatureYear        = "year"
	FeatureMonth       = "month"
	FeatureDay         = "day"
	FeatureHour        = "hour"
	FeatureMinute      = "minute"
	FeatureWind70m     = "wind_speed_70m"
	FeatureWind50m     = "wind_speed_50m"
	FeatureWind30m     = "wind_speed_30m"
	FeatureWind10m     = "wind_speed_10m"
	FeatureTemperature = "temperature"
	FeaturePressure    = "pressure"
	FeatureHumidity    = "humidity"
)

// Group is the form section a feature is rendered in.
type Group string

const (
	GroupTime    Group = "time"
	GroupWeather Group = "weather"
)

// Widget is the kind of input control used to collect a feature.
type Widget string

const (
	WidgetNumber Widget = "number"
	WidgetSlider Widget = "slider"
	WidgetSelect Widget = "select"
)

// Feature describes one numeric input the form can collect.
type Feature struct {
	Key       string
	Label     string
	Group     Group
	Widget    Widget
	Min       float64
	Max       float64
	Step      float64
	Default   float64
	Options   []float64
	Precision int
}

// HasMax reports whether the feature has an upper bound.
func (f Feature) HasMax() bool { return !math.IsInf(f.Max, 1) }

// Format renders v with the feature's display precision.
func (f Feature) Format(v float64) string {
	return strconv.FormatFloat(v, 'f', f.Precision, 64)
}

// Validate checks v against the feature's range or option set.
func (f Feature) Validate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, f.Key)
	}
	if len(f.Options) > 0 {
		if !slices.Contains(f.Options, v) {
			return fmt.Errorf("%w: %s must be one of %v, got %s", ErrInvalidInput, f.Key, f.Options, f.Format(v))
		}
		return nil
	}
	if v < f.Min {
		return fmt.Errorf("%w: %s must be at least %s, got %s", ErrInvalidInput, f.Key, f.Format(f.Min), f.Format(v))
	}
	if f.HasMax() && v > f.Max {
		return fmt.Errorf("%w: %s must be at most %s, got %s", ErrInvalidInput, f.Key, f.Format(f.Max), f.Format(v))
	}
	return nil
}

var unbounded = math.Inf(1)

// catalog is every feature the form can collect, in display order.
var catalog = []Feature{
	{Key: FeatureYear, Label: "Year", Group: GroupTime, Widget: WidgetNumber, Min: 2019, Max: 2030, Step: 1, Default: 2023},
	{Key: FeatureMonth, Label: "Month", Group: GroupTime, Widget: WidgetSlider, Min: 1, Max: 12, Step: 1, Default: 6},
	{Key: FeatureDay, Label: "Day", Group: GroupTime, Widget: WidgetSlider, Min: 1, Max: 31, Step: 1, Default: 15},
	{Key: FeatureHour, Label: "Hour (24h)", Group: GroupTime, Widget: WidgetSlider, Min: 0, Max: 23, Step: 1, Default: 12},
	{Key: FeatureMinute, Label: "Minute", Group: GroupTime, Widget: WidgetSelect, Min: 0, Max: 45, Step: 15, Default: 0, Options: []float64{0, 15, 30, 45}},

	{Key: FeatureWind70m, Label: "Wind speed at 70 m (m/s)", Group: GroupWeather, Widget: WidgetNumber, Min: 0, Max: unbounded, Step: 0.1, Default: 5.0, Precision: 1},
	{Key: FeatureWind50m, Label: "Wind speed at 50 m (m/s)", Group: GroupWeather, Widget: WidgetNumber, Min: 0, Max: unbounded, Step: 0.1, Default: 4.5, Precision: 1},
	{Key: FeatureWind30m, Label: "Wind speed at 30 m (m/s)", Group: GroupWeather, Widget: WidgetNumber, Min: 0, Max: unbounded, Step: 0.1, Default: 4.0, Precision: 1},
	{Key: FeatureWind10m, Label: "Wind speed at 10 m (m/s)", Group: GroupWeather, Widget: WidgetNumber, Min: 0, Max: unbounded, Step: 0.1, Default: 3.5, Precision: 1},
	{Key: FeatureTemperature, Label: "Temperature (°C)", Group: GroupWeather, Widget: WidgetNumber, Min: -20, Max: 50, Step: 0.1, Default: 15.0, Precision: 1},
	{Key: FeaturePressure, Label: "Pressure (hPa)", Group: GroupWeather, Widget: WidgetNumber, Min: 800, Max: 1100, Step: 0.1, Default: 875.0, Precision: 1},
	{Key: FeatureHumidity, Label: "Humidity (%)", Group: GroupWeather, Widget: WidgetSlider, Min: 0, Max: 100, Step: 0.1, Default: 60.0, Precision: 1},
}

// Catalog returns a copy of every collectable feature in display order.
func Catalog() []Feature {
	return slices.Clone(catalog)
}

// LookupFeature returns the catalog entry for key.
func LookupFeature(key string) (Feature, bool) {
	for _, f := range catalog {
		if f.Key == key {
			return f, true
		}
	}
	return Feature{}, false
}
