// Command validate performs end-to-end integrity checks of a converted
// tower year file against its raw source. It verifies the coordinate
// grid, time axis resolution, unit conversion of the simple variables,
// the derived variables, and attribute handling.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw testdata/US-WCr-2003.nc \
//	  -converted out/US-WCr-2003.CF.nc
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/ncfile"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/adapter/units"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawPath := flag.String("raw", "", "path to the raw tower year file")
	convertedPath := flag.String("converted", "", "path to the converted file")
	flag.Parse()

	if *rawPath == "" || *convertedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawPath, *convertedPath); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, convertedPath string) int {
	store := ncfile.NewStore()

	raw, err := store.OpenSource(rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open raw file: %v\n", err)
		return 1
	}
	defer raw.Close()

	converted, err := store.OpenSource(convertedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open converted file: %v\n", err)
		return 1
	}
	defer converted.Close()

	fmt.Println("=== Converted File Integrity Validation ===")
	fmt.Println()

	phases := []*phase{
		validateGrid(raw, converted),
		validateSimpleVariables(raw, converted),
		validateDerivedVariables(raw, converted),
		validateSentinels(converted),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateGrid(raw, converted pipeline.SourceFile) *phase {
	p := &phase{name: "Coordinate grid and time axis"}

	rawAxis, err := raw.Dimension(domain.RawTimeDimension)
	if err != nil {
		p.errorf("raw time axis: %v", err)
		return p
	}
	convAxis, err := converted.Dimension("time")
	if err != nil {
		p.errorf("converted time axis: %v", err)
		return p
	}

	if len(convAxis.Values) != len(rawAxis.Values) {
		p.errorf("time axis length: raw %d, converted %d", len(rawAxis.Values), len(convAxis.Values))
	}
	if !strings.HasPrefix(convAxis.Units, rawAxis.Units) {
		p.errorf("time units %q do not extend raw units %q", convAxis.Units, rawAxis.Units)
	}
	fields := strings.Fields(convAxis.Units)
	if n := len(fields); n == 0 || (fields[n-1][0] != '+' && fields[n-1][0] != '-') {
		p.errorf("time units %q carry no UTC offset", convAxis.Units)
	}

	for _, name := range []string{"latitude", "longitude"} {
		vals, err := converted.Values(name)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if len(vals) != 1 {
			p.errorf("%s: expected a single value, got %d", name, len(vals))
		}
	}
	return p
}

func validateSimpleVariables(raw, converted pipeline.SourceFile) *phase {
	p := &phase{name: "Simple variable conversion"}
	uc := units.New()

	for _, spec := range domain.SimpleSpecs(uc) {
		rawVals, err := raw.Values(spec.Source)
		if err != nil {
			p.errorf("%s: %v", spec.Source, err)
			continue
		}
		convVals, err := converted.Values(spec.Dest)
		if err != nil {
			p.errorf("%s: %v", spec.Dest, err)
			continue
		}
		if len(convVals) != len(rawVals) {
			p.errorf("%s: raw %d values, converted %d", spec.Dest, len(rawVals), len(convVals))
			continue
		}

		want := domain.NormalizeMissing(rawVals)
		mismatches := 0
		for i, v := range want {
			if spec.Convert != nil && !math.IsNaN(v) {
				if v, err = spec.Convert(v); err != nil {
					p.errorf("%s[%d]: %v", spec.Source, i, err)
					break
				}
			}
			if !valuesMatch(v, convVals[i]) {
				mismatches++
			}
		}
		if mismatches > 0 {
			p.errorf("%s: %d of %d values do not match the expected conversion", spec.Dest, mismatches, len(want))
		}
	}
	return p
}

func validateDerivedVariables(raw, converted pipeline.SourceFile) *phase {
	p := &phase{name: "Derived variables"}

	east, errE := converted.Values(domain.VarEastwardWind)
	north, errN := converted.Values(domain.VarNorthwardWind)
	ws, errW := raw.Values(domain.RawWindSpeed)
	if errE != nil || errN != nil || errW != nil {
		p.errorf("wind components: %v %v %v", errE, errN, errW)
	} else {
		mismatches := 0
		speeds := domain.NormalizeMissing(ws)
		for i := range speeds {
			if math.IsNaN(speeds[i]) {
				continue
			}
			if i >= len(east) || i >= len(north) {
				break
			}
			e, n := decode(east[i]), decode(north[i])
			if math.IsNaN(e) || math.IsNaN(n) {
				continue
			}
			got := math.Hypot(e, n)
			if !valuesMatch(speeds[i], got) {
				mismatches++
			}
		}
		if mismatches > 0 {
			p.errorf("wind components: %d magnitudes disagree with raw wind speed", mismatches)
		}
	}

	if _, err := converted.Values(domain.VarSpecificHumidity); err != nil {
		p.errorf("%s: %v", domain.VarSpecificHumidity, err)
	}

	flux, err := converted.Values(domain.VarPrecipFlux)
	if err != nil {
		p.errorf("%s: %v", domain.VarPrecipFlux, err)
	} else {
		for i, v := range flux {
			if v != float64(domain.OutputMissingValue) && v < 0 {
				p.errorf("%s[%d]: negative flux %g", domain.VarPrecipFlux, i, v)
				break
			}
		}
	}
	return p
}

func validateSentinels(converted pipeline.SourceFile) *phase {
	p := &phase{name: "Sentinel normalization"}

	uc := units.New()
	for _, spec := range domain.SimpleSpecs(uc) {
		vals, err := converted.Values(spec.Dest)
		if err != nil {
			continue
		}
		for i, v := range vals {
			if v == domain.SentinelMissing {
				p.errorf("%s[%d]: raw missing sentinel leaked through", spec.Dest, i)
				break
			}
		}

		mv, ok, err := converted.Attribute(spec.Dest, "missing_value")
		if err != nil || !ok {
			p.errorf("%s: missing_value attribute absent", spec.Dest)
			continue
		}
		if f, isNum := mv.(float64); !isNum || f != float64(domain.OutputMissingValue) {
			p.errorf("%s: missing_value is %v", spec.Dest, mv)
		}
	}
	return p
}

// decode maps the on-disk missing value back to NaN for comparisons.
func decode(v float64) float64 {
	if v == float64(domain.OutputMissingValue) {
		return math.NaN()
	}
	return v
}

func valuesMatch(want, got float64) bool {
	if math.IsNaN(want) {
		return got == float64(domain.OutputMissingValue) || math.IsNaN(got)
	}
	if want == 0 {
		return math.Abs(got) < 1e-9
	}
	return math.Abs(want-got)/math.Abs(want) < 1e-9
}
