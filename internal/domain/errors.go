package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for per-file conversion failures. All are fatal for
// the file being converted; the pipeline decides whether the run
// continues with the next file.
var (
	// ErrSourceVariableNotFound reports a required raw variable absent
	// from the source file.
	ErrSourceVariableNotFound = errors.New("source variable not found")

	// ErrGeolocationUnresolved reports a file with neither a parsable
	// site_location attribute nor geospatial bounding attributes.
	ErrGeolocationUnresolved = errors.New("geolocation unresolved")

	// ErrDuplicateVariable reports a destination variable name collision.
	ErrDuplicateVariable = errors.New("duplicate destination variable")

	// ErrDegenerateTimeAxis reports a time axis with fewer than two
	// samples, for which the native timestep is undefined.
	ErrDegenerateTimeAxis = errors.New("time axis has fewer than 2 samples")
)

// UnitError reports a unit pair the converter cannot handle.
type UnitError struct {
	From string
	To   string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("cannot convert %q to %q", e.From, e.To)
}

// UnitConverter converts a single value between unit strings. NaN (the
// in-memory "no data" marker) passes through unchanged. Unknown or
// incompatible unit pairs fail with *UnitError.
type UnitConverter interface {
	Convert(value float64, from, to string) (float64, error)
}
