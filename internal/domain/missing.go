package domain

import "math"

// Raw-archive missing-value sentinels. Both collapse to NaN in memory.
const (
	SentinelMissing    = -9999.0
	SentinelUnreported = -6999.0
)

// OutputMissingValue is the single sentinel written to standardized
// files (missing_value / _FillValue attribute value).
const OutputMissingValue = -6999.0

// NoData returns the in-memory "no data" marker.
func NoData() float64 { return math.NaN() }

// IsNoData reports whether v is the "no data" marker.
func IsNoData(v float64) bool { return math.IsNaN(v) }

// NormalizeMissing returns a copy of values with every element equal to
// either raw sentinel replaced by the "no data" marker. All other
// elements are unchanged; the input slice is not mutated.
func NormalizeMissing(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == SentinelMissing || v == SentinelUnreported {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}
