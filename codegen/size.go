package codegen

import (
	"fmt"
	"strings"

	"github.com/lcmproject/lcmgo/schema"
)

// generateSize emits a Size method summing each field's encoded length.
// Every field is measured at runtime rather than folded into a compile-time
// constant; lcm-gen's own generators special-case fixed-size fields, but the
// extra arithmetic here is trivial next to the encode/decode it feeds.
func generateSize(g *generator, rec schema.Record) {
	g.linef("func (m *%s) Size() int {", goRecordName(rec.Name))
	g.indent++
	g.line("size := 0")
	for _, f := range rec.Fields {
		g.linef("size += %s", fieldSizeExpr(f))
	}
	g.line("return size")
	g.indent--
	g.line("}")
	g.line("")
}

func fieldSizeExpr(f schema.Field) string {
	name := "m." + exportedName(f.Name)
	if len(f.Dims) == 0 {
		return baseSizeExpr(f.Type, name)
	}

	var b strings.Builder
	b.WriteString("func() int {\n")
	b.WriteString("n := 0\n")
	cur := name
	// Fixed-size base types never read the innermost element, and Go rejects
	// an unused range variable, so that loop ranges without one.
	usesElem := f.Type.IsStruct || f.Type.Primitive == schema.String
	for i := range f.Dims {
		if i == len(f.Dims)-1 && !usesElem {
			b.WriteString(fmt.Sprintf("for range %s {\n", cur))
			break
		}
		v := fmt.Sprintf("elem%d", i)
		b.WriteString(fmt.Sprintf("for _, %s := range %s {\n", v, cur))
		cur = v
	}
	b.WriteString(fmt.Sprintf("n += %s\n", baseSizeExpr(f.Type, cur)))
	for range f.Dims {
		b.WriteString("}\n")
	}
	b.WriteString("return n\n")
	b.WriteString("}()")
	return b.String()
}

func baseSizeExpr(t schema.Type, expr string) string {
	if t.IsStruct {
		return fmt.Sprintf("%s.Size()", expr)
	}
	switch t.Primitive {
	case schema.Int8, schema.Byte, schema.Boolean:
		return "1"
	case schema.Int16:
		return "2"
	case schema.Int32, schema.Float:
		return "4"
	case schema.Int64, schema.Double:
		return "8"
	case schema.String:
		return fmt.Sprintf("(4 + len(%s) + 1)", expr)
	default:
		return "0"
	}
}
