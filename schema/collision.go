package schema

import "github.com/lcmproject/lcmgo/errs"

// CollisionReport names two records that hash to the same structural HASH.
type CollisionReport struct {
	Hash   uint64
	First  string
	Second string
}

// CollisionTracker detects structural hash collisions among the records
// produced by a single codegen run. A collision is never an error: two
// unrelated records that happen to hash to the same 64-bit value can both be
// generated and used, but a generator that notices is doing its users a
// favor by saying so.
type CollisionTracker struct {
	byHash  map[uint64]string // hash -> first record name seen with it
	reports []CollisionReport
}

// NewCollisionTracker creates an empty tracker.
func NewCollisionTracker() *CollisionTracker {
	return &CollisionTracker{byHash: make(map[uint64]string)}
}

// Track records a record's computed hash, reporting a collision if another
// record with a different name already produced the same hash. Returns
// ErrDuplicateRecord if the exact same name was already tracked.
func (t *CollisionTracker) Track(name string, hash uint64) error {
	if name == "" {
		return errs.ErrEmptyRecordName
	}

	for _, seen := range t.byHash {
		if seen == name {
			return errs.ErrDuplicateRecord
		}
	}
	for _, r := range t.reports {
		if r.Second == name {
			return errs.ErrDuplicateRecord
		}
	}

	if existing, ok := t.byHash[hash]; ok {
		t.reports = append(t.reports, CollisionReport{Hash: hash, First: existing, Second: name})
		return nil
	}

	t.byHash[hash] = name
	return nil
}

// HasCollisions reports whether any collision has been observed.
func (t *CollisionTracker) HasCollisions() bool {
	return len(t.reports) > 0
}

// Reports returns every collision observed so far, in the order they were
// detected.
func (t *CollisionTracker) Reports() []CollisionReport {
	return t.reports
}
