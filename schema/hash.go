package schema

import "github.com/lcmproject/lcmgo/wire"

// Resolver looks up the already-computed HASH of a struct-typed field's
// referent, keyed by its fully-qualified dotted name (namespace joined with
// "." plus the record name).
type Resolver func(qualifiedName string) (uint64, bool)

// toWireField converts a parsed Field into the wire.FieldHash shape the
// structural hash algorithm consumes.
func toWireField(f Field) wire.FieldHash {
	wf := wire.FieldHash{Name: f.Name}
	if f.Type.IsPrimitive() {
		wf.Primitive = f.Type.Primitive.HashTag()
	}
	for _, d := range f.Dims {
		mode := int8(0)
		if d.Mode == DimVariable {
			mode = 1
		}
		wf.Dims = append(wf.Dims, wire.DimHash{Mode: mode, Text: d.Text})
	}
	return wf
}

// Hash computes a record's structural HASH. resolve is consulted once per
// struct-typed field, in declaration order, to obtain that field's
// referent's own HASH; it is never consulted for primitive fields, and the
// referent's own name never affects the result (only its HASH does).
func Hash(rec Record, resolve Resolver) (uint64, error) {
	fields := make([]wire.FieldHash, 0, len(rec.Fields))
	var nested []uint64

	for _, f := range rec.Fields {
		fields = append(fields, toWireField(f))
		if f.Type.IsStruct {
			qualified := qualifiedTypeName(f.Type)
			h, ok := resolve(qualified)
			if !ok {
				return 0, &unresolvedReferenceError{Name: qualified}
			}
			nested = append(nested, h)
		}
	}

	return wire.Hash(fields, nested...), nil
}

func qualifiedTypeName(t Type) string {
	name := t.StructName
	for i := len(t.Namespace) - 1; i >= 0; i-- {
		name = t.Namespace[i] + "." + name
	}
	return name
}

type unresolvedReferenceError struct {
	Name string
}

func (e *unresolvedReferenceError) Error() string {
	return "schema: unresolved reference to " + e.Name
}
