package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds surfaced to the operator.
var (
	// ErrModelUnavailable means the model artifact does not exist at the configured path.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrModelLoad means the artifact exists but could not be decoded or validated.
	ErrModelLoad = errors.New("model load failed")
	// ErrFeatureMismatch means inputs and model columns disagree.
	ErrFeatureMismatch = errors.New("feature mismatch")
	// ErrPrediction wraps any other failure from the model call.
	ErrPrediction = errors.New("prediction failed")
	// ErrInvalidInput means a submitted value is outside its widget's range.
	ErrInvalidInput = errors.New("invalid input")
)

// MismatchError describes a disagreement between collected inputs, the
// required feature list, and the model's declared columns.
type MismatchError struct {
	Missing  []string // required features with no collected value
	Expected []string // required feature order
	Found    []string // columns declared by the model
}

func (e *MismatchError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("feature mismatch: missing inputs for %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("feature mismatch: expected columns [%s], model declares [%s]",
		strings.Join(e.Expected, ", "), strings.Join(e.Found, ", "))
}

func (e *MismatchError) Unwrap() error { return ErrFeatureMismatch }

// ErrorKind classifies an error for display and metrics.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindModelUnavailable ErrorKind = "model_unavailable"
	KindModelLoad        ErrorKind = "model_load_error"
	KindFeatureMismatch  ErrorKind = "feature_mismatch"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindPrediction       ErrorKind = "prediction_error"
)

// KindOf classifies err. Model errors take precedence because a load failure
// caused by a column mismatch is still a load failure. Unrecognized errors
// are treated as prediction failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrModelLoad):
		return KindModelLoad
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrFeatureMismatch):
		return KindFeatureMismatch
	default:
		return KindPrediction
	}
}

// Title is the operator-facing heading for an error kind.
func (k ErrorKind) Title() string {
	switch k {
	case KindModelUnavailable:
		return "The model could not be loaded, so no prediction can be made. Check the model file path and integrity."
	case KindModelLoad:
		return "Error loading the model."
	case KindFeatureMismatch:
		return "Input preparation error: a required feature is missing or the column order does not match. Check the required feature list."
	case KindInvalidInput:
		return "One of the inputs is out of range."
	case KindPrediction:
		return "An error occurred during prediction."
	default:
		return ""
	}
}
