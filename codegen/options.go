package codegen

import "strings"

// Options configures how a schema.Module tree is translated into Go source.
type Options struct {
	// ModulePath is the Go module path generated files import each other
	// under, e.g. "github.com/example/robot/msgs". Required whenever a
	// record references a struct-typed field declared in another namespace.
	ModulePath string

	// RootPackage names the Go package generated for records declared
	// without any namespace (LCM's default/root module). Defaults to
	// "lcmtypes" when empty.
	RootPackage string

	// Derive names extra methods to emit on every generated record,
	// mirroring lcm-gen's --derive flag. Go has no derive macros, so each
	// name maps to a fixed, hand-written method instead of a trait impl.
	// Recognized: "stringer" (adds a String() method via fmt.Sprintf("%+v", ...)).
	Derive []string
}

func (o Options) hasDerive(name string) bool {
	for _, d := range o.Derive {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

func (o Options) rootPackage() string {
	if o.RootPackage != "" {
		return o.RootPackage
	}
	return "lcmtypes"
}
