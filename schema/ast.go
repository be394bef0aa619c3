// Package schema parses .lcm message definition files into an AST and
// organizes them into a namespace tree ready for code generation.
package schema

// PrimitiveType enumerates LCM's built-in field types. A Type is either one
// of these or a reference to a user-defined record in some namespace.
type PrimitiveType int

const (
	Int8 PrimitiveType = iota
	Int16
	Int32
	Int64
	Float
	Double
	String
	Boolean
	Byte
	notPrimitive // sentinel: Type refers to a user-defined record
)

func (p PrimitiveType) String() string {
	switch p {
	case Int8:
		return "int8_t"
	case Int16:
		return "int16_t"
	case Int32:
		return "int32_t"
	case Int64:
		return "int64_t"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	default:
		return ""
	}
}

// HashTag returns the type tag string folded into a record's structural
// hash. This is deliberately not the same as String() for Byte: reference
// lcmgen hashes a byte field exactly as it would an int8_t, since byte and
// int8_t share a wire encoding and a tag, differing only in signedness at
// the host-language level. Every other primitive's tag equals its String().
func (p PrimitiveType) HashTag() string {
	if p == Byte {
		return Int8.String()
	}
	return p.String()
}

// Type is a field's declared type: either a primitive or a reference to a
// record, optionally namespace-qualified.
type Type struct {
	Primitive   PrimitiveType
	IsStruct    bool
	Namespace   []string // dotted package path of a struct-typed reference
	StructName  string
}

// IsPrimitive reports whether the type is one of LCM's built-in scalar types.
func (t Type) IsPrimitive() bool {
	return !t.IsStruct
}

// DimMode distinguishes a fixed (compile-time constant) array dimension from
// a variable one sized by another field.
type DimMode int

const (
	DimFixed DimMode = iota
	DimVariable
)

// Dimension is one array dimension of a field declaration. Text holds the
// base-10 literal for a fixed dimension or the name of the sizing field for
// a variable one — exactly the text the structural hash folds in.
type Dimension struct {
	Mode DimMode
	Text string
}

// Field is one member of a record.
type Field struct {
	Comment string
	Name    string
	Type    Type
	Dims    []Dimension
}

// Constant is one compile-time constant declared in a record. Its Type may
// be any primitive type name; the parser requires a numeric literal Value
// that parses as a float for float/double and as an integer otherwise.
type Constant struct {
	Comment string
	Name    string
	Type    PrimitiveType
	Value   string // the literal as written, e.g. "3.14159" or "42"
}

// Record is one message/struct definition within a namespace.
type Record struct {
	Comment   string
	Name      string
	Fields    []Field
	Constants []Constant
}

// File is the parsed contents of a single .lcm source file: an optional
// package namespace declaration plus the records it defines.
type File struct {
	Namespace []string
	Records   []Record
}

// AddPackagePrefix splices a namespace prefix onto every record's namespace
// in the file, used when a codegen invocation asks for all output to live
// under an additional package path.
func (f *File) AddPackagePrefix(prefix []string) {
	if len(prefix) == 0 {
		return
	}
	f.Namespace = append(append([]string{}, prefix...), f.Namespace...)
}
