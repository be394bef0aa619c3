// Package codegen translates a parsed schema.Module tree into Go source:
// one package per namespace, one type per record, with hand-rolled
// Encode/Decode/Hash/Size methods satisfying wire.Message. There is no
// runtime reflection involved: every method body is emitted as plain
// field-by-field code, the same way lcm-gen's own code generator works.
package codegen

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/lcmproject/lcmgo/schema"
)

// File is one generated Go source file, not yet gofmt'd or import-resolved.
type File struct {
	// ImportPath is the Go import path of the package this file belongs to,
	// e.g. "github.com/example/robot/msgs/sensor".
	ImportPath string
	// RelPath is the file's path relative to Options.ModulePath's root,
	// e.g. "sensor/sensor.go".
	RelPath string
	Source  []byte
}

// Generate walks mod and emits one Go source file per namespace that
// declares at least one record. Files are returned in a stable, sorted
// order.
func Generate(mod *schema.Module, opts Options) ([]File, error) {
	var files []File
	var genErr error

	hashes := mod.RecordHashes()

	mod.Walk(func(ns []string, m *schema.Module) {
		if genErr != nil || len(m.Records) == 0 {
			return
		}
		src, err := generatePackage(ns, m.Records, opts, hashes)
		if err != nil {
			genErr = fmt.Errorf("namespace %q: %w", strings.Join(ns, "."), err)
			return
		}
		files = append(files, File{
			ImportPath: importPath(opts, ns),
			RelPath:    relPath(opts, ns),
			Source:     src,
		})
	})
	if genErr != nil {
		return nil, genErr
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func importPath(opts Options, ns []string) string {
	if len(ns) == 0 {
		return path.Join(opts.ModulePath, opts.rootPackage())
	}
	return path.Join(append([]string{opts.ModulePath}, ns...)...)
}

func relPath(opts Options, ns []string) string {
	if len(ns) == 0 {
		root := opts.rootPackage()
		return root + "/" + root + ".go"
	}
	return path.Join(ns...) + "/" + ns[len(ns)-1] + ".go"
}

func packageName(opts Options, ns []string) string {
	if len(ns) == 0 {
		return opts.rootPackage()
	}
	return ns[len(ns)-1]
}

// generator accumulates output text with indent tracking, the same way
// lcm-gen's own CodeGenerator builds its Rust output.
type generator struct {
	buf    strings.Builder
	indent int
	start  bool
}

func (g *generator) push(s string) {
	if g.start {
		g.buf.WriteString(strings.Repeat("\t", g.indent))
		g.start = false
	}
	g.buf.WriteString(s)
}

func (g *generator) line(s string) {
	g.push(s)
	g.buf.WriteByte('\n')
	g.start = true
}

func (g *generator) linef(format string, args ...any) {
	g.line(fmt.Sprintf(format, args...))
}

func (g *generator) block(open string, body func()) {
	g.line(open)
	g.indent++
	body()
	g.indent--
	g.line("}")
}

type importSet struct {
	aliases map[string]string // import path -> alias
}

func newImportSet() *importSet {
	return &importSet{aliases: make(map[string]string)}
}

func (s *importSet) add(opts Options, ns []string) string {
	ip := importPath(opts, ns)
	if alias, ok := s.aliases[ip]; ok {
		return alias
	}
	alias := packageName(opts, ns)
	s.aliases[ip] = alias
	return alias
}

func generatePackage(ns []string, records []schema.Record, opts Options, hashes map[string]uint64) ([]byte, error) {
	imports := newImportSet()
	g := &generator{start: true}

	var body strings.Builder
	bg := &generator{start: true}
	for _, rec := range records {
		if rec.Name == "" {
			return nil, fmt.Errorf("record with empty name")
		}
		if err := generateRecord(bg, rec, ns, opts, imports, hashes); err != nil {
			return nil, err
		}
	}
	body.WriteString(bg.buf.String())

	pkgName := packageName(opts, ns)
	g.linef("package %s", pkgName)
	g.line("")
	g.line("import (")
	g.indent++
	g.line(`"bytes"`)
	if needsWire(records) {
		g.line("")
		g.line(`"github.com/lcmproject/lcmgo/wire"`)
	}
	if len(imports.aliases) > 0 {
		g.line("")
		paths := make([]string, 0, len(imports.aliases))
		for ip := range imports.aliases {
			paths = append(paths, ip)
		}
		sort.Strings(paths)
		for _, ip := range paths {
			g.linef("%s %q", imports.aliases[ip], ip)
		}
	}
	g.indent--
	g.line(")")
	g.line("")
	g.push(body.String())

	return []byte(g.buf.String()), nil
}

// needsWire reports whether any record's generated methods call into the
// wire package. A record made only of struct-typed fields with fixed
// dimensions encodes entirely through its referents' own methods, and its
// hash is a resolved literal, so the import would be unused.
func needsWire(records []schema.Record) bool {
	for _, rec := range records {
		for _, f := range rec.Fields {
			if f.Type.IsPrimitive() {
				return true
			}
			for _, d := range f.Dims {
				if d.Mode == schema.DimVariable {
					return true
				}
			}
		}
	}
	return false
}

func generateRecord(g *generator, rec schema.Record, ns []string, opts Options, imports *importSet, hashes map[string]uint64) error {
	qualified := strings.Join(append(append([]string{}, ns...), rec.Name), ".")
	hash, ok := hashes[qualified]
	if !ok {
		return fmt.Errorf("record %s: structural hash cannot be resolved (undeclared or mutually recursive referent)", qualified)
	}

	if rec.Comment != "" {
		generateComment(g, rec.Comment)
	}
	g.linef("type %s struct {", goRecordName(rec.Name))
	g.indent++
	for _, f := range rec.Fields {
		if f.Comment != "" {
			generateComment(g, f.Comment)
		}
		g.linef("%s %s", exportedName(f.Name), goFieldType(f, ns, opts, imports))
	}
	g.indent--
	g.line("}")
	g.line("")

	if len(rec.Constants) > 0 {
		g.block("const (", func() {
			for _, c := range rec.Constants {
				if c.Comment != "" {
					generateComment(g, c.Comment)
				}
				g.linef("%s_%s %s = %s", goRecordName(rec.Name), exportedName(c.Name), goPrimitiveType(c.Type), c.Value)
			}
		})
		g.line("")
	}

	generateHash(g, rec, hash)
	generateSize(g, rec)
	generateEncode(g, rec)
	generateDecode(g, rec, ns, opts, imports)
	if opts.hasDerive("stringer") {
		generateStringer(g, rec)
	}

	return nil
}

func generateComment(g *generator, comment string) {
	for _, line := range strings.Split(strings.TrimRight(comment, "\n"), "\n") {
		g.linef("// %s", line)
	}
}

func exportedName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// goRecordName maps an LCM record name onto an exported Go type name: a
// trailing "_t" is stripped and underscore-separated words are CamelCased,
// so temperature_t becomes Temperature while an already-CamelCase name
// passes through unchanged. Only the Go-side name changes; the structural
// hash folds field names and type tags, never record names, so renaming
// here cannot break wire compatibility.
func goRecordName(name string) string {
	name = strings.TrimSuffix(name, "_t")
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

func goPrimitiveType(p schema.PrimitiveType) string {
	switch p {
	case schema.Int8:
		return "int8"
	case schema.Int16:
		return "int16"
	case schema.Int32:
		return "int32"
	case schema.Int64:
		return "int64"
	case schema.Float:
		return "float32"
	case schema.Double:
		return "float64"
	case schema.String:
		return "string"
	case schema.Boolean:
		return "bool"
	case schema.Byte:
		return "byte"
	default:
		return "any"
	}
}

func goElemType(t schema.Type, currentNS []string, opts Options, imports *importSet) string {
	if !t.IsStruct {
		return goPrimitiveType(t.Primitive)
	}
	if sameNamespace(t.Namespace, currentNS) {
		return goRecordName(t.StructName)
	}
	alias := imports.add(opts, t.Namespace)
	return alias + "." + goRecordName(t.StructName)
}

func sameNamespace(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func goFieldType(f schema.Field, ns []string, opts Options, imports *importSet) string {
	return fieldDimsType(goElemType(f.Type, ns, opts, imports), f.Dims)
}

// fieldDimsType wraps elemGoType in the array/slice shape described by dims,
// innermost dimension first. Used to name the element type of a slice
// allocated partway through a field's dimensions.
func fieldDimsType(elemGoType string, dims []schema.Dimension) string {
	t := elemGoType
	for i := len(dims) - 1; i >= 0; i-- {
		d := dims[i]
		if d.Mode == schema.DimFixed {
			t = fmt.Sprintf("[%s]%s", d.Text, t)
		} else {
			t = "[]" + t
		}
	}
	return t
}
