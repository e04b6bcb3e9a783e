package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// GeoLocation is a WGS-84 latitude/longitude coordinate pair for the
// tower site. Resolved once per file.
type GeoLocation struct {
	Lat float64
	Lon float64
}

// TimezoneService looks up the local standard time UTC offset (hours,
// possibly fractional) for a coordinate.
type TimezoneService interface {
	LookupUTCOffset(ctx context.Context, lat, lon float64) (float64, error)
}

// ParseSiteLocation extracts coordinates from the free-text
// site_location global attribute. The archive format fixes latitude at
// character offsets [20:28) and longitude at [40:48); the offsets are a
// format contract, not a heuristic.
func ParseSiteLocation(s string) (GeoLocation, error) {
	if len(s) < 48 {
		return GeoLocation{}, fmt.Errorf("site_location %q too short: %w", s, ErrGeolocationUnresolved)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(s[20:28]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(s[40:48]), 64)
	if errLat != nil || errLon != nil {
		return GeoLocation{}, fmt.Errorf("site_location %q unparsable: %w", s, ErrGeolocationUnresolved)
	}
	return GeoLocation{Lat: lat, Lon: lon}, nil
}

// FormatUTCOffset renders an offset in hours the way the time-units
// suffix expects: "+6" for zero or positive, "-3" for negative.
func FormatUTCOffset(hours float64) string {
	s := strconv.FormatFloat(hours, 'f', -1, 64)
	if hours >= 0 {
		return "+" + s
	}
	return s
}

// ResolveTimeUnits returns the raw time-units string with the site's
// UTC offset appended. If the final whitespace-separated token already
// starts with '+' or '-' the offset is embedded and the string is
// returned unchanged, so re-running on an already-resolved file never
// double-appends.
func ResolveTimeUnits(ctx context.Context, rawUnits string, geo GeoLocation, svc TimezoneService) (string, error) {
	fields := strings.Fields(rawUnits)
	if n := len(fields); n > 0 {
		if c := fields[n-1][0]; c == '+' || c == '-' {
			return rawUnits, nil
		}
	}
	if svc == nil {
		return "", fmt.Errorf("time units %q need a UTC offset but no timezone service is configured", rawUnits)
	}
	offset, err := svc.LookupUTCOffset(ctx, geo.Lat, geo.Lon)
	if err != nil {
		return "", fmt.Errorf("timezone lookup for (%.4f, %.4f): %w", geo.Lat, geo.Lon, err)
	}
	return rawUnits + " " + FormatUTCOffset(offset), nil
}
