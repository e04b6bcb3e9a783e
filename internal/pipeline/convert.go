package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
)

// Converter turns one raw tower year file into its standardized
// counterpart. It is stateless across files; every per-file resource is
// opened and closed inside ConvertFile.
type Converter struct {
	store    Store
	timezone domain.TimezoneService
	units    domain.UnitConverter
	logger   *slog.Logger
}

func NewConverter(store Store, timezone domain.TimezoneService, units domain.UnitConverter, logger *slog.Logger) *Converter {
	return &Converter{
		store:    store,
		timezone: timezone,
		units:    units,
		logger:   logger,
	}
}

// ConvertFile converts inPath to outPath and reports how many variables
// were written. On any failure the partial output file is removed so a
// later pass does not mistake it for a finished conversion.
func (c *Converter) ConvertFile(ctx context.Context, inPath, outPath string) (int, error) {
	src, err := c.store.OpenSource(inPath)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	geo, err := resolveGeoLocation(src)
	if err != nil {
		return 0, err
	}

	timeAxis, err := src.Dimension(domain.RawTimeDimension)
	if err != nil {
		return 0, fmt.Errorf("read time axis: %w", err)
	}
	timeUnits, err := domain.ResolveTimeUnits(ctx, timeAxis.Units, geo, c.timezone)
	if err != nil {
		return 0, err
	}

	snk, err := c.store.CreateSink(outPath)
	if err != nil {
		return 0, fmt.Errorf("create sink: %w", err)
	}
	written, err := c.populate(src, snk, geo, timeAxis, timeUnits)
	if cerr := snk.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close sink: %w", cerr)
	}
	if err != nil {
		if rerr := os.Remove(outPath); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			c.logger.Warn("failed to remove partial output", "path", outPath, "error", rerr)
		}
		return 0, err
	}
	return written, nil
}

// populate writes the full destination file body: grid, the simple
// mapping table, the derived variables, then global attributes.
func (c *Converter) populate(src SourceFile, snk SinkFile, geo domain.GeoLocation, timeAxis DimensionData, timeUnits string) (int, error) {
	if err := snk.DefineGrid(geo.Lat, geo.Lon, timeAxis.Values, timeUnits); err != nil {
		return 0, fmt.Errorf("define grid: %w", err)
	}

	written := 0
	for _, spec := range domain.SimpleSpecs(c.units) {
		if err := transcodeVariable(src, snk, spec); err != nil {
			return 0, err
		}
		written++
	}

	if err := c.deriveSpecificHumidity(src, snk); err != nil {
		return 0, err
	}
	written++

	if err := c.deriveWindComponents(src, snk); err != nil {
		return 0, err
	}
	written += 2

	if err := c.derivePrecipitationFlux(src, snk, timeAxis.Values); err != nil {
		return 0, err
	}
	written++

	attrs, err := src.GlobalAttributes()
	if err != nil {
		return 0, fmt.Errorf("read global attributes: %w", err)
	}
	for _, a := range attrs {
		if err := snk.PutAttribute("", a.Name, a.Value); err != nil {
			return 0, fmt.Errorf("write global attribute %s: %w", a.Name, err)
		}
	}
	return written, nil
}

func (c *Converter) deriveSpecificHumidity(src SourceFile, snk SinkFile) error {
	rh, err := readNormalized(src, domain.RawHumidity)
	if err != nil {
		return err
	}
	ta, err := readNormalized(src, domain.RawAirTemperature)
	if err != nil {
		return err
	}
	if len(rh) != len(ta) {
		return fmt.Errorf("derive %s: %s has %d values, %s has %d",
			domain.VarSpecificHumidity, domain.RawHumidity, len(rh), domain.RawAirTemperature, len(ta))
	}

	qair := make([]float64, len(rh))
	for i := range rh {
		tk, err := c.units.Convert(ta[i], "degC", "K")
		if err != nil {
			return fmt.Errorf("derive %s: %w", domain.VarSpecificHumidity, err)
		}
		qair[i] = domain.RH2SpecificHumidity(rh[i]/100, tk)
	}
	return putDerived(snk, VarDef{Name: domain.VarSpecificHumidity, Units: "kg kg-1", MissingValue: domain.OutputMissingValue}, qair)
}

func (c *Converter) deriveWindComponents(src SourceFile, snk SinkFile) error {
	wd, err := readNormalized(src, domain.RawWindDirection)
	if err != nil {
		return err
	}
	ws, err := readNormalized(src, domain.RawWindSpeed)
	if err != nil {
		return err
	}
	if len(wd) != len(ws) {
		return fmt.Errorf("derive wind components: %s has %d values, %s has %d",
			domain.RawWindDirection, len(wd), domain.RawWindSpeed, len(ws))
	}

	east := make([]float64, len(ws))
	north := make([]float64, len(ws))
	for i := range ws {
		east[i], north[i] = domain.WindComponents(wd[i], ws[i])
	}

	units := ""
	if v, ok, err := src.Attribute(domain.RawWindSpeed, "units"); err != nil {
		return fmt.Errorf("read %s units: %w", domain.RawWindSpeed, err)
	} else if ok {
		units, _ = v.(string)
	}

	if err := putDerived(snk, VarDef{Name: domain.VarEastwardWind, Units: units, MissingValue: domain.OutputMissingValue}, east); err != nil {
		return err
	}
	if err := putDerived(snk, VarDef{Name: domain.VarNorthwardWind, Units: units, MissingValue: domain.OutputMissingValue}, north); err != nil {
		return err
	}

	// Speed bounds become symmetric component bounds.
	speedMax, ok, err := attrFloat(src, domain.RawWindSpeed, domain.CopiedAttributes.ValidMax)
	if err != nil || !ok {
		return err
	}
	for _, name := range []string{domain.VarEastwardWind, domain.VarNorthwardWind} {
		if err := snk.PutAttribute(name, domain.CopiedAttributes.ValidMin, -speedMax); err != nil {
			return fmt.Errorf("write %s valid_min: %w", name, err)
		}
		if err := snk.PutAttribute(name, domain.CopiedAttributes.ValidMax, speedMax); err != nil {
			return fmt.Errorf("write %s valid_max: %w", name, err)
		}
	}
	return nil
}

func (c *Converter) derivePrecipitationFlux(src SourceFile, snk SinkFile, timeValues []float64) error {
	prec, err := readNormalized(src, domain.RawPrecipitation)
	if err != nil {
		return err
	}
	timestep, err := domain.TimestepMinutes(timeValues)
	if err != nil {
		return fmt.Errorf("derive %s: %w", domain.VarPrecipFlux, err)
	}

	flux := make([]float64, len(prec))
	for i, v := range prec {
		flux[i] = domain.PrecipitationFlux(v, timestep)
	}
	return putDerived(snk, VarDef{Name: domain.VarPrecipFlux, Units: "kg m-2 s-1", MissingValue: domain.OutputMissingValue}, flux)
}

func putDerived(snk SinkFile, def VarDef, values []float64) error {
	if err := snk.AddVariable(def); err != nil {
		return fmt.Errorf("define %s: %w", def.Name, err)
	}
	if err := snk.PutValues(def.Name, values); err != nil {
		return fmt.Errorf("write %s: %w", def.Name, err)
	}
	return nil
}

func readNormalized(src SourceFile, name string) ([]float64, error) {
	raw, err := src.Values(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return domain.NormalizeMissing(raw), nil
}

// resolveGeoLocation extracts the site coordinate, preferring the
// fixed-layout site_location attribute and falling back to the
// geospatial bounds pair.
func resolveGeoLocation(src SourceFile) (domain.GeoLocation, error) {
	if s, ok, err := attrString(src, "", "site_location"); err == nil && ok {
		if geo, perr := domain.ParseSiteLocation(s); perr == nil {
			return geo, nil
		}
	}

	lat, okLat, err := attrFloat(src, "", "geospatial_lat_min")
	if err != nil {
		return domain.GeoLocation{}, err
	}
	lon, okLon, err := attrFloat(src, "", "geospatial_lon_min")
	if err != nil {
		return domain.GeoLocation{}, err
	}
	if okLat && okLon {
		return domain.GeoLocation{Lat: lat, Lon: lon}, nil
	}
	return domain.GeoLocation{}, fmt.Errorf("no usable coordinate attributes: %w", domain.ErrGeolocationUnresolved)
}
