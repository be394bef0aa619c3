package codegen

import (
	"fmt"

	"github.com/lcmproject/lcmgo/schema"
)

// generateEncode emits an Encode method writing every field in declaration
// order, the order the wire format requires.
func generateEncode(g *generator, rec schema.Record) {
	g.linef("func (m *%s) Encode(buf *bytes.Buffer) error {", goRecordName(rec.Name))
	g.indent++
	for _, f := range rec.Fields {
		emitEncodeField(g, f)
	}
	g.line("return nil")
	g.indent--
	g.line("}")
	g.line("")
}

func emitEncodeField(g *generator, f schema.Field) {
	name := "m." + exportedName(f.Name)
	emitEncodeValue(g, name, f.Type, f.Dims, 0)
}

// emitEncodeValue recurses one dimension per call: a variable dimension
// checks its length against the sizing field before ranging over it, a fixed
// dimension just ranges.
func emitEncodeValue(g *generator, expr string, t schema.Type, dims []schema.Dimension, depth int) {
	if len(dims) == 0 {
		emitEncodeScalar(g, expr, t)
		return
	}

	d := dims[0]
	if d.Mode == schema.DimVariable {
		g.linef("if err := wire.CheckLength(%q, int(m.%s), len(%s)); err != nil {", d.Text, exportedName(d.Text), expr)
		g.indent++
		g.line("return err")
		g.indent--
		g.line("}")
	}

	idx := fmt.Sprintf("i%d", depth)
	g.linef("for %s := range %s {", idx, expr)
	g.indent++
	emitEncodeValue(g, fmt.Sprintf("%s[%s]", expr, idx), t, dims[1:], depth+1)
	g.indent--
	g.line("}")
}

func emitEncodeScalar(g *generator, expr string, t schema.Type) {
	if t.IsStruct {
		g.linef("if err := %s.Encode(buf); err != nil {", expr)
		g.indent++
		g.line("return err")
		g.indent--
		g.line("}")
		return
	}

	fn := primitiveEncodeFunc(t.Primitive)
	g.linef("if err := wire.%s(buf, %s); err != nil {", fn, expr)
	g.indent++
	g.line("return err")
	g.indent--
	g.line("}")
}

func primitiveEncodeFunc(p schema.PrimitiveType) string {
	switch p {
	case schema.Int8:
		return "EncodeInt8"
	case schema.Int16:
		return "EncodeInt16"
	case schema.Int32:
		return "EncodeInt32"
	case schema.Int64:
		return "EncodeInt64"
	case schema.Float:
		return "EncodeFloat"
	case schema.Double:
		return "EncodeDouble"
	case schema.String:
		return "EncodeString"
	case schema.Boolean:
		return "EncodeBool"
	case schema.Byte:
		return "EncodeByte"
	default:
		return ""
	}
}
