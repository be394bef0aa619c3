package codegen

import "github.com/lcmproject/lcmgo/schema"

// generateStringer emits a String method, requested with Options.Derive's
// "stringer" entry.
func generateStringer(g *generator, rec schema.Record) {
	g.linef("func (m *%s) String() string {", goRecordName(rec.Name))
	g.indent++
	g.line(`return fmt.Sprintf("%+v", *m)`)
	g.indent--
	g.line("}")
	g.line("")
}
