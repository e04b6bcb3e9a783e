// Package domain models the conversion of raw flux-tower observation
// files into CF-convention form.
//
// # Data Source
//
// Raw files are per-year NetCDF archives of AmeriFlux-style Level 2
// tower observations: one scalar time series per meteorological
// variable (TA, PRESS, CO2, TS1, RH, VPD, Rg, Rgl, PAR, WD, WS, PREC),
// dimensioned over a decimal-day time axis named DTIME. The upstream
// archive encodes gaps with two numeric sentinels rather than a fill
// value.
//
// # Raw Format Conventions
//
// Missing-value sentinels:
//
//	-9999 = missing value (instrument gap)
//	-6999 = unreported value (variable not collected at this site)
//	Both collapse to a single "no data" marker (NaN in memory) before
//	any unit conversion, so sentinels are never scaled as if they were
//	measurements.
//
// Site location attribute:
//
//	The global "site_location" attribute is free text with latitude at
//	character offsets [20:28) and longitude at [40:48), e.g.
//	"Site location: Lat 45.9459   Long  -90.2723   Elev  520".
//	Files without it carry geospatial_lat_min / geospatial_lon_min
//	numeric attributes instead. Files with neither are rejected.
//
// Time axis:
//
//	DTIME holds decimal day-of-year in site-local standard time; the
//	native sampling interval is a multiple of 30 minutes, 0.02083 days.
//	The output time axis keeps the raw values and appends the site's
//	UTC offset to the units string ("+6", "-3"). Units strings already
//	ending in a signed offset are left alone.
//
// # Standardized Output
//
// Output variables take canonical CF names (air_temperature,
// air_pressure, ...), SI/CF units, one missing-value sentinel, and a
// whitelisted attribute set (long_name, valid_min, valid_max, comment).
// Eleven variables are straight per-value conversions described by the
// [ConversionSpec] table; specific humidity, the wind vector
// components, and precipitation flux are derived from multiple raw
// inputs (see derive.go).
package domain
