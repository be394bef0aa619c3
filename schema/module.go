package schema

import (
	"sort"
	"strings"
)

// Module is one node of the namespace tree assembled from every parsed
// File. The root Module represents the empty namespace; each dotted
// namespace component below it is its own nested Module.
type Module struct {
	Name       string
	Submodules map[string]*Module
	Records    []Record
}

// NewModule creates an empty module tree root.
func NewModule() *Module {
	return &Module{Submodules: make(map[string]*Module)}
}

// AddRecord inserts rec into the module tree at the given dotted namespace
// path, creating intermediate submodules as needed. This mirrors the
// reference generator's behavior of implicitly creating parent namespaces
// for a deeply nested package declaration.
func (m *Module) AddRecord(namespace []string, rec Record) {
	if len(namespace) == 0 {
		m.Records = append(m.Records, rec)
		return
	}

	head, rest := namespace[0], namespace[1:]
	sub, ok := m.Submodules[head]
	if !ok {
		sub = &Module{Name: head, Submodules: make(map[string]*Module)}
		m.Submodules[head] = sub
	}
	sub.AddRecord(rest, rec)
}

// Merge folds every record of a parsed File into the module tree.
func (m *Module) Merge(f *File) {
	for _, rec := range f.Records {
		m.AddRecord(f.Namespace, rec)
	}
}

// Walk invokes fn once for every module in the tree, including the root,
// in depth-first order with each module's own namespace path.
func (m *Module) Walk(fn func(path []string, mod *Module)) {
	m.walk(nil, fn)
}

func (m *Module) walk(path []string, fn func(path []string, mod *Module)) {
	fn(path, m)
	for name, sub := range m.Submodules {
		sub.walk(append(append([]string{}, path...), name), fn)
	}
}

// RecordHashes computes the structural HASH of every record in the tree,
// keyed by fully-qualified dotted name. Records may reference each other in
// any declaration order, so hashing iterates to a fixpoint; a record whose
// struct-typed references never resolve (an undeclared referent, or
// mutually recursive records, whose hashes have no finite closed form) is
// absent from the result.
func (m *Module) RecordHashes() map[string]uint64 {
	type entry struct {
		qualified string
		rec       Record
	}

	var todo []entry
	m.Walk(func(path []string, mod *Module) {
		for _, rec := range mod.Records {
			qualified := strings.Join(append(append([]string{}, path...), rec.Name), ".")
			todo = append(todo, entry{qualified: qualified, rec: rec})
		}
	})

	hashes := make(map[string]uint64, len(todo))
	resolve := func(name string) (uint64, bool) {
		h, ok := hashes[name]
		return h, ok
	}

	for progress := true; progress && len(todo) > 0; {
		progress = false
		remaining := todo[:0]
		for _, e := range todo {
			h, err := Hash(e.rec, resolve)
			if err != nil {
				remaining = append(remaining, e)
				continue
			}
			hashes[e.qualified] = h
			progress = true
		}
		todo = remaining
	}

	return hashes
}

// Collisions reports any two distinct records in the tree that hash to the
// same structural HASH. Advisory only: colliding records still generate and
// still work, but a receiver subscribed with one type will silently accept
// the other's payloads.
func (m *Module) Collisions() []CollisionReport {
	hashes := m.RecordHashes()

	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)

	tracker := NewCollisionTracker()
	for _, name := range names {
		_ = tracker.Track(name, hashes[name])
	}
	return tracker.Reports()
}
