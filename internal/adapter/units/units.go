// Package units implements domain.UnitConverter for the unit pairs the
// raw archive uses, expressed through typed quantities where the unit
// library covers them and plain scale factors where it does not.
package units

import (
	"math"

	"github.com/martinlindhe/unit"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
)

// Converter converts scalar values between unit strings.
type Converter struct{}

// New creates a Converter.
func New() *Converter { return &Converter{} }

// Convert maps value from one unit string to another. NaN (the no-data
// marker) passes through untouched. Unknown pairs fail with
// *domain.UnitError.
func (c *Converter) Convert(value float64, from, to string) (float64, error) {
	if math.IsNaN(value) {
		return value, nil
	}
	nf, nt := normalize(from), normalize(to)
	if nf == nt {
		return value, nil
	}
	fn, ok := conversions[nf+"->"+nt]
	if !ok {
		return 0, &domain.UnitError{From: from, To: to}
	}
	return fn(value), nil
}

// normalize collapses unit spelling variants onto one key per unit.
func normalize(u string) string {
	switch u {
	case "C", "degC", "celsius":
		return "degC"
	case "K", "kelvin":
		return "K"
	case "ppm", "umol/mol", "umol mol-1":
		return "ppm"
	case "mol/mol", "mol mol-1":
		return "mol/mol"
	default:
		return u
	}
}

var conversions = map[string]func(float64) float64{
	"degC->K": func(v float64) float64 { return unit.FromCelsius(v).Kelvin() },
	"K->degC": func(v float64) float64 { return unit.FromKelvin(v).Celsius() },

	"kPa->Pa": func(v float64) float64 { return (unit.Pressure(v) * unit.Kilopascal).Pascals() },
	"Pa->kPa": func(v float64) float64 { return (unit.Pressure(v) * unit.Pascal).Kilopascals() },
	"hPa->Pa": func(v float64) float64 { return (unit.Pressure(v) * unit.Hectopascal).Pascals() },

	// Mole-fraction and amount scalings are not quantity types in the
	// unit library; they are pure powers of ten.
	"ppm->mol/mol": func(v float64) float64 { return v * 1e-6 },
	"mol/mol->ppm": func(v float64) float64 { return v * 1e6 },
	"umol->mol":    func(v float64) float64 { return v * 1e-6 },
	"mol->umol":    func(v float64) float64 { return v * 1e6 },
}
