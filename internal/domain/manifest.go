package domain

import "time"

// Conversion outcome statuses for manifest rows.
const (
	StatusConverted = "converted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// ConversionResult is one manifest row: the outcome of converting a
// single input year file.
type ConversionResult struct {
	InputFile   string    `json:"input_file"`
	OutputFile  string    `json:"output_file"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Variables   int       `json:"variables,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewConversionResult builds a manifest row stamped with the package
// clock.
func NewConversionResult(inputFile, outputFile, status string, variables int, err error) ConversionResult {
	r := ConversionResult{
		InputFile:   inputFile,
		OutputFile:  outputFile,
		Status:      status,
		Variables:   variables,
		ProcessedAt: clock.Now(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
