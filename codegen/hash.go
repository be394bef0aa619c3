package codegen

import (
	"github.com/lcmproject/lcmgo/schema"
)

// generateHash emits the record's structural hash as a package-level
// constant, fully resolved at generation time the way lcm-gen folds it into
// a compile-time value, plus the Hash method the Message contract requires.
func generateHash(g *generator, rec schema.Record, hash uint64) {
	name := goRecordName(rec.Name)
	g.linef("// %sHash identifies %s's field layout on the wire.", name, name)
	g.linef("const %sHash uint64 = 0x%016x", name, hash)
	g.line("")
	g.linef("func (m *%s) Hash() uint64 { return %sHash }", name, name)
	g.line("")
}
