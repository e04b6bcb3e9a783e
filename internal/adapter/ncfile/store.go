// Package ncfile implements the structured data store on NetCDF files.
package ncfile

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/pipeline"
)

// Store opens raw tower archives for reading and creates standardized
// output files. Output files are written in NetCDF-4 format so variable
// definitions and data writes can interleave freely.
type Store struct{}

func NewStore() *Store { return &Store{} }

func (s *Store) OpenSource(path string) (pipeline.SourceFile, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &sourceFile{ds: ds}, nil
}

func (s *Store) CreateSink(path string) (pipeline.SinkFile, error) {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &sinkFile{ds: ds, vars: make(map[string]sinkVar)}, nil
}

type sourceFile struct {
	ds netcdf.Dataset
}

func (f *sourceFile) Values(name string) ([]float64, error) {
	v, err := f.ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, domain.ErrSourceVariableNotFound)
	}
	return readValues(v)
}

func (f *sourceFile) Attribute(varName, attrName string) (any, bool, error) {
	if varName == "" {
		return decodeAttr(f.ds.Attr(attrName))
	}
	v, err := f.ds.Var(varName)
	if err != nil {
		return nil, false, fmt.Errorf("variable %q: %w", varName, domain.ErrSourceVariableNotFound)
	}
	return decodeAttr(v.Attr(attrName))
}

func (f *sourceFile) Dimension(name string) (pipeline.DimensionData, error) {
	v, err := f.ds.Var(name)
	if err != nil {
		return pipeline.DimensionData{}, fmt.Errorf("coordinate variable %q: %w", name, domain.ErrSourceVariableNotFound)
	}
	values, err := readValues(v)
	if err != nil {
		return pipeline.DimensionData{}, err
	}
	d := pipeline.DimensionData{Values: values}
	if u, ok, err := decodeAttr(v.Attr("units")); err != nil {
		return pipeline.DimensionData{}, err
	} else if ok {
		d.Units, _ = u.(string)
	}
	return d, nil
}

func (f *sourceFile) GlobalAttributes() ([]pipeline.AttributeKV, error) {
	n, err := f.ds.NAttrs()
	if err != nil {
		return nil, fmt.Errorf("count global attributes: %w", err)
	}
	out := make([]pipeline.AttributeKV, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := f.ds.AttrN(i)
		if err != nil {
			return nil, fmt.Errorf("global attribute %d: %w", i, err)
		}
		value, ok, err := decodeAttr(a)
		if err != nil {
			return nil, fmt.Errorf("global attribute %q: %w", a.Name(), err)
		}
		if !ok {
			continue
		}
		out = append(out, pipeline.AttributeKV{Name: a.Name(), Value: value})
	}
	return out, nil
}

func (f *sourceFile) Close() error { return f.ds.Close() }

type sinkVar struct {
	v            netcdf.Var
	missingValue float64
}

type sinkFile struct {
	ds      netcdf.Dataset
	varDims []netcdf.Dim
	vars    map[string]sinkVar
}

func (f *sinkFile) DefineGrid(lat, lon float64, timeValues []float64, timeUnits string) error {
	latDim, err := f.ds.AddDim("latitude", 1)
	if err != nil {
		return fmt.Errorf("add latitude dimension: %w", err)
	}
	lonDim, err := f.ds.AddDim("longitude", 1)
	if err != nil {
		return fmt.Errorf("add longitude dimension: %w", err)
	}
	timeDim, err := f.ds.AddDim("time", uint64(len(timeValues)))
	if err != nil {
		return fmt.Errorf("add time dimension: %w", err)
	}
	f.varDims = []netcdf.Dim{timeDim, latDim, lonDim}

	if err := f.addCoordinate("latitude", []netcdf.Dim{latDim}, []float64{lat}, "degrees_north"); err != nil {
		return err
	}
	if err := f.addCoordinate("longitude", []netcdf.Dim{lonDim}, []float64{lon}, "degrees_east"); err != nil {
		return err
	}
	return f.addCoordinate("time", []netcdf.Dim{timeDim}, timeValues, timeUnits)
}

func (f *sinkFile) addCoordinate(name string, dims []netcdf.Dim, values []float64, units string) error {
	v, err := f.ds.AddVar(name, netcdf.DOUBLE, dims)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if err := v.WriteFloat64s(values); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if units == "" {
		return nil
	}
	if err := v.Attr("units").WriteBytes([]byte(units)); err != nil {
		return fmt.Errorf("write %s units: %w", name, err)
	}
	return nil
}

func (f *sinkFile) AddVariable(def pipeline.VarDef) error {
	if _, exists := f.vars[def.Name]; exists {
		return fmt.Errorf("variable %q: %w", def.Name, domain.ErrDuplicateVariable)
	}
	v, err := f.ds.AddVar(def.Name, netcdf.DOUBLE, f.varDims)
	if err != nil {
		return fmt.Errorf("add %s: %w", def.Name, err)
	}
	if def.Units != "" {
		if err := v.Attr("units").WriteBytes([]byte(def.Units)); err != nil {
			return fmt.Errorf("write %s units: %w", def.Name, err)
		}
	}
	for _, name := range []string{"missing_value", "_FillValue"} {
		if err := v.Attr(name).WriteFloat64s([]float64{def.MissingValue}); err != nil {
			return fmt.Errorf("write %s %s: %w", def.Name, name, err)
		}
	}
	f.vars[def.Name] = sinkVar{v: v, missingValue: def.MissingValue}
	return nil
}

func (f *sinkFile) PutValues(name string, values []float64) error {
	sv, ok := f.vars[name]
	if !ok {
		return fmt.Errorf("variable %q not defined", name)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = sv.missingValue
			continue
		}
		out[i] = v
	}
	if err := sv.v.WriteFloat64s(out); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (f *sinkFile) PutAttribute(varName, attrName string, value any) error {
	a := f.ds.Attr(attrName)
	if varName != "" {
		sv, ok := f.vars[varName]
		if !ok {
			return fmt.Errorf("variable %q not defined", varName)
		}
		a = sv.v.Attr(attrName)
	}
	return encodeAttr(a, varName, attrName, value)
}

func (f *sinkFile) Close() error { return f.ds.Close() }

func encodeAttr(a netcdf.Attr, varName, attrName string, value any) error {
	var err error
	switch v := value.(type) {
	case string:
		err = a.WriteBytes([]byte(v))
	case float64:
		err = a.WriteFloat64s([]float64{v})
	case []float64:
		err = a.WriteFloat64s(v)
	default:
		return fmt.Errorf("attribute %s:%s: unsupported type %T", varName, attrName, value)
	}
	if err != nil {
		return fmt.Errorf("write attribute %s:%s: %w", varName, attrName, err)
	}
	return nil
}

// decodeAttr reads an attribute, normalizing text to string and
// single-element numerics to float64. Absent attributes report ok=false;
// attribute types outside the tower archive vocabulary are skipped the
// same way.
func decodeAttr(a netcdf.Attr) (any, bool, error) {
	n, err := a.Len()
	if err != nil {
		return nil, false, nil
	}
	t, err := a.Type()
	if err != nil {
		return nil, false, fmt.Errorf("attribute %q type: %w", a.Name(), err)
	}
	if n == 0 {
		return nil, false, nil
	}

	switch t {
	case netcdf.CHAR:
		buf := make([]byte, n)
		if err := a.ReadBytes(buf); err != nil {
			return nil, false, fmt.Errorf("read attribute %q: %w", a.Name(), err)
		}
		return string(buf), true, nil
	case netcdf.DOUBLE:
		vals := make([]float64, n)
		if err := a.ReadFloat64s(vals); err != nil {
			return nil, false, fmt.Errorf("read attribute %q: %w", a.Name(), err)
		}
		return vals[0], true, nil
	case netcdf.FLOAT:
		vals := make([]float32, n)
		if err := a.ReadFloat32s(vals); err != nil {
			return nil, false, fmt.Errorf("read attribute %q: %w", a.Name(), err)
		}
		return float64(vals[0]), true, nil
	case netcdf.INT:
		vals := make([]int32, n)
		if err := a.ReadInt32s(vals); err != nil {
			return nil, false, fmt.Errorf("read attribute %q: %w", a.Name(), err)
		}
		return float64(vals[0]), true, nil
	case netcdf.SHORT:
		vals := make([]int16, n)
		if err := a.ReadInt16s(vals); err != nil {
			return nil, false, fmt.Errorf("read attribute %q: %w", a.Name(), err)
		}
		return float64(vals[0]), true, nil
	default:
		return nil, false, nil
	}
}

// readValues reads a variable's full array as float64 regardless of its
// stored numeric type.
func readValues(v netcdf.Var) ([]float64, error) {
	length, err := v.Len()
	if err != nil {
		return nil, fmt.Errorf("variable length: %w", err)
	}
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("variable type: %w", err)
	}

	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, length)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported variable type: %v", t)
	}
}
