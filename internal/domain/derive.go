package domain

import "math"

// referenceInterval is the native 30-minute sampling interval expressed
// in decimal days, as declared by the raw archive format.
const referenceInterval = 0.02083

// RH2SpecificHumidity converts relative humidity (fraction, 0-1) and
// air temperature (K) to specific humidity (kg kg-1). Either input
// being "no data" yields "no data".
func RH2SpecificHumidity(rhFraction, temperatureK float64) float64 {
	return rhFraction * 2.541e6 * math.Exp(-5415.0/temperatureK) * 18.0 / 29.0
}

// WindComponents decomposes a meteorological wind direction (degrees)
// and speed into eastward and northward components.
func WindComponents(directionDeg, speed float64) (eastward, northward float64) {
	rad := directionDeg * math.Pi / 180.0
	return speed * math.Cos(rad), speed * math.Sin(rad)
}

// TimestepMinutes computes the native sampling interval of a raw time
// axis in minutes: the mean consecutive difference expressed as a
// multiple of the 30-minute reference interval, rounded to one decimal
// place. Fails with ErrDegenerateTimeAxis for fewer than two samples.
func TimestepMinutes(timeAxis []float64) (float64, error) {
	if len(timeAxis) < 2 {
		return 0, ErrDegenerateTimeAxis
	}
	var sum float64
	for i := 1; i < len(timeAxis); i++ {
		sum += timeAxis[i] - timeAxis[i-1]
	}
	mean := sum / float64(len(timeAxis)-1)
	minutes := mean / (referenceInterval / 30.0)
	return math.Round(minutes*10) / 10, nil
}

// PrecipitationFlux converts a per-timestep precipitation accumulation
// (mm, equivalently kg m-2) to a flux in kg m-2 s-1.
func PrecipitationFlux(accumulation, timestepMinutes float64) float64 {
	return accumulation / timestepMinutes / 60.0
}
