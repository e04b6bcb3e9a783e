// Command genmock writes a synthetic raw flux-tower year file for test
// and demo use. The file carries the raw archive layout the converter
// expects: a DTIME decimal-day axis, the raw variable names, sentinel
// codes sprinkled through the data, and the fixed-layout site_location
// global attribute.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/US-WCr-2003.nc -year 2003 -days 2
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/fhs/go-netcdf/netcdf"
)

type rawVar struct {
	name     string
	longName string
	units    string
	validMin float64
	validMax float64
	base     float64
	swing    float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw fixture file")
	year := flag.Int("year", 2003, "calendar year stamped into the time units")
	days := flag.Int("days", 2, "number of days of data to generate")
	stepMinutes := flag.Int("step-minutes", 30, "sampling interval in minutes")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *days <= 0 || *stepMinutes <= 0 {
		return fmt.Errorf("-days and -step-minutes must be positive")
	}

	steps := *days * 24 * 60 / *stepMinutes
	if err := writeFixture(*out, *year, steps, *stepMinutes); err != nil {
		return err
	}
	log.Printf("wrote %s: %d steps at %d minutes", *out, steps, *stepMinutes)
	return nil
}

func writeFixture(path string, year, steps, stepMinutes int) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer ds.Close()

	dim, err := ds.AddDim("DTIME", uint64(steps))
	if err != nil {
		return fmt.Errorf("add DTIME dimension: %w", err)
	}

	// Decimal days from the start of the year, one step per sample.
	dtime := make([]float64, steps)
	stepDays := float64(stepMinutes) / (24 * 60)
	for i := range dtime {
		dtime[i] = float64(i+1) * stepDays
	}
	timeVar, err := ds.AddVar("DTIME", netcdf.DOUBLE, []netcdf.Dim{dim})
	if err != nil {
		return fmt.Errorf("add DTIME: %w", err)
	}
	if err := timeVar.WriteFloat64s(dtime); err != nil {
		return fmt.Errorf("write DTIME: %w", err)
	}
	timeUnits := fmt.Sprintf("days since %d-01-01 00:00:00", year)
	if err := timeVar.Attr("units").WriteBytes([]byte(timeUnits)); err != nil {
		return fmt.Errorf("write DTIME units: %w", err)
	}

	vars := []rawVar{
		{name: "TA", longName: "Air temperature", units: "degC", validMin: -40, validMax: 50, base: 12, swing: 8},
		{name: "PRESS", longName: "Atmospheric pressure", units: "kPa", validMin: 80, validMax: 110, base: 98.5, swing: 0.6},
		{name: "CO2", longName: "CO2 concentration", units: "umol mol-1", validMin: 300, validMax: 600, base: 385, swing: 25},
		{name: "TS1", longName: "Soil temperature", units: "degC", validMin: -30, validMax: 40, base: 8, swing: 3},
		{name: "RH", longName: "Relative humidity", units: "%", validMin: 0, validMax: 100, base: 65, swing: 20},
		{name: "VPD", longName: "Vapor pressure deficit", units: "kPa", validMin: 0, validMax: 6, base: 0.8, swing: 0.9},
		{name: "Rg", longName: "Global radiation", units: "W m-2", validMin: 0, validMax: 1400, base: 300, swing: 300},
		{name: "Rgl", longName: "Longwave radiation", units: "W m-2", validMin: 50, validMax: 600, base: 320, swing: 40},
		{name: "PAR", longName: "Photosynthetic photon flux density", units: "umol m-2 s-1", validMin: 0, validMax: 2500, base: 600, swing: 600},
		{name: "WD", longName: "Wind direction", units: "deg", validMin: 0, validMax: 360, base: 180, swing: 170},
		{name: "WS", longName: "Wind speed", units: "m s-1", validMin: 0, validMax: 20, base: 3.5, swing: 2.5},
		{name: "PREC", longName: "Precipitation", units: "mm", validMin: 0, validMax: 30, base: 0.3, swing: 0.3},
	}

	for i, rv := range vars {
		if err := writeRawVar(ds, dim, rv, steps, i); err != nil {
			return err
		}
	}

	siteLocation := "Site location: Lat  45.9459   Long      -90.2723   Elev 520"
	if err := ds.Attr("site_location").WriteBytes([]byte(siteLocation)); err != nil {
		return fmt.Errorf("write site_location: %w", err)
	}
	if err := ds.Attr("site_name").WriteBytes([]byte("Willow Creek")); err != nil {
		return fmt.Errorf("write site_name: %w", err)
	}
	return nil
}

func writeRawVar(ds netcdf.Dataset, dim netcdf.Dim, rv rawVar, steps, seed int) error {
	v, err := ds.AddVar(rv.name, netcdf.DOUBLE, []netcdf.Dim{dim})
	if err != nil {
		return fmt.Errorf("add %s: %w", rv.name, err)
	}

	values := make([]float64, steps)
	for i := range values {
		phase := 2 * math.Pi * float64(i) / 48
		values[i] = rv.base + rv.swing*math.Sin(phase+float64(seed))
		if values[i] < rv.validMin {
			values[i] = rv.validMin
		}
		// Sprinkle both sentinel codes through the data.
		if (i+seed)%97 == 0 {
			values[i] = -9999
		} else if (i+seed)%131 == 0 {
			values[i] = -6999
		}
	}
	if err := v.WriteFloat64s(values); err != nil {
		return fmt.Errorf("write %s: %w", rv.name, err)
	}

	attrs := map[string]any{
		"long_name": rv.longName,
		"units":     rv.units,
		"valid_min": rv.validMin,
		"valid_max": rv.validMax,
		"comment": fmt.Sprintf("%s, -9999 = missing value, -6999 = unreported value",
			rv.longName),
	}
	for name, value := range attrs {
		var err error
		switch av := value.(type) {
		case string:
			err = v.Attr(name).WriteBytes([]byte(av))
		case float64:
			err = v.Attr(name).WriteFloat64s([]float64{av})
		}
		if err != nil {
			return fmt.Errorf("write %s %s: %w", rv.name, name, err)
		}
	}
	return nil
}
