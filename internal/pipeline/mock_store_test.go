package pipeline_test

import (
	"context"
	"fmt"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/pipeline"
)

// --- in-memory store fakes ---

type fakeSource struct {
	vars        map[string][]float64
	attrs       map[string]map[string]any
	dims        map[string]pipeline.DimensionData
	globalOrder []string
	closed      bool
}

func (f *fakeSource) Values(name string) ([]float64, error) {
	v, ok := f.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %q: %w", name, domain.ErrSourceVariableNotFound)
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, nil
}

func (f *fakeSource) Attribute(varName, attrName string) (any, bool, error) {
	v, ok := f.attrs[varName][attrName]
	return v, ok, nil
}

func (f *fakeSource) Dimension(name string) (pipeline.DimensionData, error) {
	d, ok := f.dims[name]
	if !ok {
		return pipeline.DimensionData{}, fmt.Errorf("dimension %q not found", name)
	}
	return d, nil
}

func (f *fakeSource) GlobalAttributes() ([]pipeline.AttributeKV, error) {
	out := make([]pipeline.AttributeKV, 0, len(f.globalOrder))
	for _, name := range f.globalOrder {
		out = append(out, pipeline.AttributeKV{Name: name, Value: f.attrs[""][name]})
	}
	return out, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

type fakeGrid struct {
	lat, lon   float64
	timeValues []float64
	timeUnits  string
	defined    bool
}

type fakeSink struct {
	grid   fakeGrid
	vars   map[string]pipeline.VarDef
	order  []string
	values map[string][]float64
	attrs  map[string]map[string]any
	closed bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		vars:   make(map[string]pipeline.VarDef),
		values: make(map[string][]float64),
		attrs:  make(map[string]map[string]any),
	}
}

func (f *fakeSink) DefineGrid(lat, lon float64, timeValues []float64, timeUnits string) error {
	f.grid = fakeGrid{lat: lat, lon: lon, timeValues: timeValues, timeUnits: timeUnits, defined: true}
	return nil
}

func (f *fakeSink) AddVariable(def pipeline.VarDef) error {
	if _, exists := f.vars[def.Name]; exists {
		return fmt.Errorf("variable %q: %w", def.Name, domain.ErrDuplicateVariable)
	}
	f.vars[def.Name] = def
	f.order = append(f.order, def.Name)
	return nil
}

func (f *fakeSink) PutValues(name string, values []float64) error {
	if _, exists := f.vars[name]; !exists {
		return fmt.Errorf("variable %q not defined", name)
	}
	f.values[name] = values
	return nil
}

func (f *fakeSink) PutAttribute(varName, attrName string, value any) error {
	if f.attrs[varName] == nil {
		f.attrs[varName] = make(map[string]any)
	}
	f.attrs[varName][attrName] = value
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

type fakeStore struct {
	sources map[string]*fakeSource
	sinks   map[string]*fakeSink
	openErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sources: make(map[string]*fakeSource),
		sinks:   make(map[string]*fakeSink),
	}
}

func (f *fakeStore) OpenSource(path string) (pipeline.SourceFile, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	src, ok := f.sources[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return src, nil
}

func (f *fakeStore) CreateSink(path string) (pipeline.SinkFile, error) {
	snk := newFakeSink()
	f.sinks[path] = snk
	return snk, nil
}

// --- fixture data ---

const testSiteLocation = "Site location: Lat  45.9459   Long      -90.2723   Elev 520"

// newTestSource builds a four-step half-hourly year file carrying every
// raw variable the converter reads.
func newTestSource() *fakeSource {
	return &fakeSource{
		vars: map[string][]float64{
			"TA":    {20, 20, -9999, 20},
			"PRESS": {101.3, 101.3, 101.3, 101.3},
			"CO2":   {380, 380, 380, -6999},
			"TS1":   {10, 10, 10, 10},
			"RH":    {50, 50, 50, 50},
			"VPD":   {1.0, -0.5, 1.0, 1.0},
			"Rg":    {100, 100, 100, 100},
			"Rgl":   {300, 300, 300, 300},
			"PAR":   {1000, 1000, 1000, 1000},
			"WD":    {0, 90, 180, 270},
			"WS":    {5, 5, 5, 5},
			"PREC":  {0.5, 0, 0, 0.5},
		},
		attrs: map[string]map[string]any{
			"": {
				"site_location": testSiteLocation,
				"site_name":     "Willow Creek",
			},
			"TA": {
				"long_name":  "Air temperature",
				"valid_min":  -40.0,
				"valid_max":  50.0,
				"comment":    "Air temperature, -9999 = missing value, -6999 = unreported value",
				"instrument": "HMP45C",
			},
			"WS": {
				"units":     "m s-1",
				"valid_max": 20.0,
			},
			"Rg": {
				"units": "W m-2",
			},
		},
		dims: map[string]pipeline.DimensionData{
			"DTIME": {
				Units:  "days since 2003-01-01 00:00:00",
				Values: []float64{0.02083, 0.04166, 0.06249, 0.08332},
			},
		},
		globalOrder: []string{"site_location", "site_name"},
	}
}

type countingTimezone struct {
	offset float64
	err    error
	calls  int
}

func (c *countingTimezone) LookupUTCOffset(_ context.Context, _, _ float64) (float64, error) {
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.offset, nil
}
