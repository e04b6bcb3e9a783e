package pipeline

import (
	"fmt"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
)

// transcodeVariable carries one simple mapping from source to sink:
// read, normalize sentinels, convert element-wise, define the
// destination variable, write values, then copy whitelisted attributes.
func transcodeVariable(src SourceFile, snk SinkFile, spec domain.ConversionSpec) error {
	raw, err := src.Values(spec.Source)
	if err != nil {
		return fmt.Errorf("read %s: %w", spec.Source, err)
	}
	values := domain.NormalizeMissing(raw)
	if spec.Convert != nil {
		for i, v := range values {
			values[i], err = spec.Convert(v)
			if err != nil {
				return fmt.Errorf("convert %s: %w", spec.Source, err)
			}
		}
	}

	units := spec.DestUnits
	if units == "" {
		if v, ok, err := src.Attribute(spec.Source, "units"); err != nil {
			return fmt.Errorf("read %s units: %w", spec.Source, err)
		} else if ok {
			units, _ = v.(string)
		}
	}

	if err := snk.AddVariable(VarDef{Name: spec.Dest, Units: units, MissingValue: domain.OutputMissingValue}); err != nil {
		return fmt.Errorf("define %s: %w", spec.Dest, err)
	}
	if err := snk.PutValues(spec.Dest, values); err != nil {
		return fmt.Errorf("write %s: %w", spec.Dest, err)
	}
	return copyAttributes(src, snk, spec)
}

// copyAttributes carries the descriptive attribute whitelist from the
// source variable to its destination. Bounds attributes pass through the
// mapping's value conversion so they stay consistent with the data; the
// comment attribute is scrubbed of raw sentinel documentation.
func copyAttributes(src SourceFile, snk SinkFile, spec domain.ConversionSpec) error {
	if s, ok, err := attrString(src, spec.Source, domain.CopiedAttributes.LongName); err != nil {
		return err
	} else if ok {
		if err := snk.PutAttribute(spec.Dest, domain.CopiedAttributes.LongName, s); err != nil {
			return fmt.Errorf("write %s long_name: %w", spec.Dest, err)
		}
	}

	for _, name := range []string{domain.CopiedAttributes.ValidMin, domain.CopiedAttributes.ValidMax} {
		v, ok, err := attrFloat(src, spec.Source, name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if spec.Convert != nil {
			if v, err = spec.Convert(v); err != nil {
				return fmt.Errorf("convert %s %s: %w", spec.Source, name, err)
			}
		}
		if err := snk.PutAttribute(spec.Dest, name, v); err != nil {
			return fmt.Errorf("write %s %s: %w", spec.Dest, name, err)
		}
	}

	if s, ok, err := attrString(src, spec.Source, domain.CopiedAttributes.Comment); err != nil {
		return err
	} else if ok {
		if err := snk.PutAttribute(spec.Dest, domain.CopiedAttributes.Comment, domain.CleanComment(s)); err != nil {
			return fmt.Errorf("write %s comment: %w", spec.Dest, err)
		}
	}
	return nil
}

func attrString(src SourceFile, varName, attrName string) (string, bool, error) {
	v, ok, err := src.Attribute(varName, attrName)
	if err != nil || !ok {
		return "", false, err
	}
	s, isStr := v.(string)
	if !isStr {
		return "", false, fmt.Errorf("attribute %s:%s: expected text, got %T", varName, attrName, v)
	}
	return s, true, nil
}

func attrFloat(src SourceFile, varName, attrName string) (float64, bool, error) {
	v, ok, err := src.Attribute(varName, attrName)
	if err != nil || !ok {
		return 0, false, err
	}
	f, isNum := v.(float64)
	if !isNum {
		return 0, false, fmt.Errorf("attribute %s:%s: expected numeric, got %T", varName, attrName, v)
	}
	return f, true, nil
}
