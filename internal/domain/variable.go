package domain

import (
	"math"
	"regexp"
)

// Canonical CF variable names produced by the converter.
const (
	VarAirTemperature   = "air_temperature"
	VarAirPressure      = "air_pressure"
	VarCO2MoleFraction  = "mole_fraction_of_carbon_dioxide_in_air"
	VarSoilTemperature  = "soil_temperature"
	VarRelativeHumidity = "relative_humidity"
	VarSpecificHumidity = "specific_humidity"
	VarVaporDeficit     = "water_vapor_saturation_deficit"
	VarShortwaveFlux    = "surface_downwelling_shortwave_flux_in_air"
	VarLongwaveFlux     = "surface_downwelling_longwave_flux_in_air"
	VarPhotonFlux       = "surface_downwelling_photosynthetic_photon_flux_in_air"
	VarWindDirection    = "wind_direction"
	VarWindSpeed        = "wind_speed"
	VarEastwardWind     = "eastward_wind"
	VarNorthwardWind    = "northward_wind"
	VarPrecipFlux       = "precipitation_flux"
	VarLatitude         = "latitude"
	VarLongitude        = "longitude"
)

// Raw variable names in the source archive.
const (
	RawAirTemperature = "TA"
	RawPressure       = "PRESS"
	RawCO2            = "CO2"
	RawSoilTemp       = "TS1"
	RawHumidity       = "RH"
	RawVaporDeficit   = "VPD"
	RawShortwave      = "Rg"
	RawLongwave       = "Rgl"
	RawPAR            = "PAR"
	RawWindDirection  = "WD"
	RawWindSpeed      = "WS"
	RawPrecipitation  = "PREC"
)

// RawTimeDimension is the raw decimal-day time axis.
const RawTimeDimension = "DTIME"

// ConversionSpec describes one simple (single-source) variable mapping.
// DestUnits empty means the destination inherits the source's declared
// units attribute. Convert nil means identity.
type ConversionSpec struct {
	Source    string
	Dest      string
	DestUnits string
	Convert   func(float64) (float64, error)
}

// SimpleSpecs returns the table of the eleven simple mappings, in
// output order. All per-mapping policy lives here; the transcoder that
// consumes the table has no mapping-specific branches.
func SimpleSpecs(uc UnitConverter) []ConversionSpec {
	conv := func(from, to string) func(float64) (float64, error) {
		return func(v float64) (float64, error) { return uc.Convert(v, from, to) }
	}

	// Negative deficits are sensor artifacts, not physical values.
	vpd := func(v float64) (float64, error) {
		pa, err := uc.Convert(v, "kPa", "Pa")
		if err != nil {
			return 0, err
		}
		if pa < 0 {
			return math.NaN(), nil
		}
		return pa, nil
	}

	return []ConversionSpec{
		{Source: RawAirTemperature, Dest: VarAirTemperature, DestUnits: "K", Convert: conv("degC", "K")},
		{Source: RawPressure, Dest: VarAirPressure, DestUnits: "Pa", Convert: conv("kPa", "Pa")},
		{Source: RawCO2, Dest: VarCO2MoleFraction, DestUnits: "mol mol-1", Convert: conv("ppm", "mol/mol")},
		{Source: RawSoilTemp, Dest: VarSoilTemperature, DestUnits: "K", Convert: conv("degC", "K")},
		{Source: RawHumidity, Dest: VarRelativeHumidity},
		{Source: RawVaporDeficit, Dest: VarVaporDeficit, DestUnits: "Pa", Convert: vpd},
		{Source: RawShortwave, Dest: VarShortwaveFlux},
		{Source: RawLongwave, Dest: VarLongwaveFlux},
		{Source: RawPAR, Dest: VarPhotonFlux, DestUnits: "mol m-2 s-1", Convert: conv("umol", "mol")},
		{Source: RawWindDirection, Dest: VarWindDirection},
		{Source: RawWindSpeed, Dest: VarWindSpeed},
	}
}

// CopiedAttributes is the whitelist of descriptive attributes carried
// from source to destination variables. valid_min and valid_max pass
// through the same conversion applied to the values.
var CopiedAttributes = struct {
	LongName, ValidMin, ValidMax, Comment string
}{
	LongName: "long_name",
	ValidMin: "valid_min",
	ValidMax: "valid_max",
	Comment:  "comment",
}

// sentinelClauseRe matches the trailing comment clause documenting the
// raw sentinel codes, which is misleading once sentinels are normalized.
var sentinelClauseRe = regexp.MustCompile(`, -9999[^,]* = missing value, -6999[^,]* = unreported value`)

// CleanComment strips the sentinel-documentation clause from a raw
// comment attribute.
func CleanComment(comment string) string {
	return sentinelClauseRe.ReplaceAllString(comment, "")
}
