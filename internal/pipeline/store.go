package pipeline

// DimensionData is a named axis read from a source file: its declared
// units string and coordinate values.
type DimensionData struct {
	Units  string
	Values []float64
}

// AttributeKV is one file-level attribute.
type AttributeKV struct {
	Name  string
	Value any
}

// VarDef describes a destination variable. Every destination variable is
// dimensioned over (latitude=1, longitude=1, time=N).
type VarDef struct {
	Name         string
	Units        string
	MissingValue float64
}

// Store opens structured data files for reading and writing.
type Store interface {
	OpenSource(path string) (SourceFile, error)
	CreateSink(path string) (SinkFile, error)
}

// SourceFile is the read side of the structured data store.
//
// Attribute values are normalized to string (character attributes) or
// float64 (single-element numeric attributes).
type SourceFile interface {
	// Values reads a variable's full array. A missing variable fails
	// with domain.ErrSourceVariableNotFound.
	Values(name string) ([]float64, error)

	// Attribute reads one attribute of the named variable; an empty
	// varName addresses global attributes. Absent attributes return
	// ok=false without error.
	Attribute(varName, attrName string) (value any, ok bool, err error)

	// Dimension reads a coordinate axis by name.
	Dimension(name string) (DimensionData, error)

	// GlobalAttributes lists every file-level attribute in order.
	GlobalAttributes() ([]AttributeKV, error)

	Close() error
}

// SinkFile is the write side of the structured data store.
type SinkFile interface {
	// DefineGrid creates the degenerate latitude/longitude coordinate
	// variables and the time axis. Must be called before AddVariable.
	DefineGrid(lat, lon float64, timeValues []float64, timeUnits string) error

	// AddVariable defines a new destination variable. A name collision
	// fails with domain.ErrDuplicateVariable, leaving the first
	// addition intact.
	AddVariable(def VarDef) error

	// PutValues writes a variable's full array. The in-memory no-data
	// marker is stored as the variable's missing value.
	PutValues(name string, values []float64) error

	// PutAttribute writes one attribute; an empty varName addresses
	// global attributes.
	PutAttribute(varName, attrName string, value any) error

	Close() error
}
