package codegen

import (
	"fmt"

	"github.com/lcmproject/lcmgo/schema"
)

// generateDecode emits a Decode method reading every field in declaration
// order, mirroring generateEncode's traversal exactly.
func generateDecode(g *generator, rec schema.Record, ns []string, opts Options, imports *importSet) {
	g.linef("func (m *%s) Decode(r *bytes.Reader) error {", goRecordName(rec.Name))
	g.indent++
	for _, f := range rec.Fields {
		emitDecodeField(g, f, ns, opts, imports)
	}
	g.line("return nil")
	g.indent--
	g.line("}")
	g.line("")
}

func emitDecodeField(g *generator, f schema.Field, ns []string, opts Options, imports *importSet) {
	localVar := "v" + exportedName(f.Name)
	expr := "m." + exportedName(f.Name)
	emitDecodeValue(g, expr, f.Type, f.Dims, 0, localVar, ns, opts, imports)
}

// emitDecodeValue mirrors emitEncodeValue's recursion. A variable dimension
// allocates the slice for this level (sized from its sizing field, already
// decoded earlier in field order) before ranging over it; a fixed dimension
// relies on the field's Go array type already being the right shape.
func emitDecodeValue(g *generator, expr string, t schema.Type, dims []schema.Dimension, depth int, localVar string, ns []string, opts Options, imports *importSet) {
	if len(dims) == 0 {
		if t.IsStruct {
			g.linef("if err := %s.Decode(r); err != nil {", expr)
			g.indent++
			g.line("return err")
			g.indent--
			g.line("}")
			return
		}

		fn := primitiveDecodeFunc(t.Primitive)
		g.linef("%s, err := wire.%s(r)", localVar, fn)
		g.line("if err != nil {")
		g.indent++
		g.line("return err")
		g.indent--
		g.line("}")
		g.linef("%s = %s", expr, localVar)
		return
	}

	d := dims[0]
	if d.Mode == schema.DimVariable {
		elemGoType := goElemType(t, ns, opts, imports)
		sliceType := "[]" + fieldDimsType(elemGoType, dims[1:])
		countVar := fmt.Sprintf("%sCount%d", localVar, depth)
		g.linef("%s, err := wire.CheckCount(%q, int64(m.%s))", countVar, d.Text, exportedName(d.Text))
		g.line("if err != nil {")
		g.indent++
		g.line("return err")
		g.indent--
		g.line("}")
		g.linef("%s = make(%s, %s)", expr, sliceType, countVar)
	}

	idx := fmt.Sprintf("i%d", depth)
	g.linef("for %s := range %s {", idx, expr)
	g.indent++
	emitDecodeValue(g, fmt.Sprintf("%s[%s]", expr, idx), t, dims[1:], depth+1, localVar, ns, opts, imports)
	g.indent--
	g.line("}")
}

func primitiveDecodeFunc(p schema.PrimitiveType) string {
	switch p {
	case schema.Int8:
		return "DecodeInt8"
	case schema.Int16:
		return "DecodeInt16"
	case schema.Int32:
		return "DecodeInt32"
	case schema.Int64:
		return "DecodeInt64"
	case schema.Float:
		return "DecodeFloat"
	case schema.Double:
		return "DecodeDouble"
	case schema.String:
		return "DecodeString"
	case schema.Boolean:
		return "DecodeBool"
	case schema.Byte:
		return "DecodeByte"
	default:
		return ""
	}
}
