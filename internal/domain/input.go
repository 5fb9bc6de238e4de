package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseInputRecord converts submitted form values into an InputRecord.
// Only catalog features are read. A blank value is left out of the record so
// the missing-feature check can name it; a non-numeric or out-of-range value
// is an ErrInvalidInput.
func ParseInputRecord(values map[string]string) (InputRecord, error) {
	rec := make(InputRecord, len(catalog))
	var errs []error
	for _, f := range catalog {
		raw := strings.TrimSpace(values[f.Key])
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s is not a number: %q", ErrInvalidInput, f.Key, raw))
			continue
		}
		if err := f.Validate(v); err != nil {
			errs = append(errs, err)
			continue
		}
		rec[f.Key] = v
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rec, nil
}

// ValidateInputRecord range-checks every catalog feature present in rec.
// Keys outside the catalog are ignored; they are dropped when ordering.
func ValidateInputRecord(rec InputRecord) error {
	var errs []error
	for _, f := range catalog {
		v, ok := rec[f.Key]
		if !ok {
			continue
		}
		if err := f.Validate(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
