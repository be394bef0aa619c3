package wire

// FieldHash describes one field's contribution to a record's structural
// hash: its name, its primitive type tag (empty for struct-typed fields —
// those contribute only their own nested hash, never their type name), and
// its array dimensions in declaration order.
type FieldHash struct {
	Name      string
	Primitive string // "" if the field's base type is a user-defined record
	Dims      []DimHash
}

// DimHash describes one array dimension. Mode is 0 for a fixed (constant)
// dimension and 1 for a variable (field-referencing) dimension; Text is the
// base-10 literal for a fixed dimension or the referenced field's name for a
// variable one.
type DimHash struct {
	Mode int8
	Text string
}

const hashSeed int64 = 0x12345678

// hashUpdate folds a single signed byte into the running hash value. Order
// of calls matters; this mirrors lcmgen's C implementation bit-for-bit.
func hashUpdate(v int64, c int8) int64 {
	return ((v << 8) ^ (v >> 55)) + int64(c)
}

// hashStringUpdate folds every byte of s into the running hash value,
// prefixed by the byte length of s (truncated to int8, matching lcmgen).
func hashStringUpdate(v int64, s string) int64 {
	v = hashUpdate(v, int8(len(s)))
	for i := 0; i < len(s); i++ {
		v = hashUpdate(v, int8(s[i]))
	}
	return v
}

// PreHash computes the structural hash contribution of a single record's own
// fields, excluding the nested hashes of any struct-typed fields and
// excluding the record's own name. Callers combine this with the HASH
// constants of every struct-typed field and apply the final rotate (see
// Finalize) to produce the record's published HASH.
func PreHash(fields []FieldHash) uint64 {
	v := hashSeed

	for _, f := range fields {
		v = hashStringUpdate(v, f.Name)

		if f.Primitive != "" {
			v = hashStringUpdate(v, f.Primitive)
		}

		v = hashUpdate(v, int8(len(f.Dims)))
		for _, d := range f.Dims {
			v = hashUpdate(v, d.Mode)
			v = hashStringUpdate(v, d.Text)
		}
	}

	return uint64(v)
}

// Finalize combines a record's PreHash with the HASH values of every
// struct-typed field it directly contains (in field declaration order,
// including duplicates), then applies the rotate-left-by-one step that LCM
// performs once per record at generation time.
func Finalize(preHash uint64, nestedHashes ...uint64) uint64 {
	sum := preHash
	for _, h := range nestedHashes {
		sum += h
	}
	return (sum << 1) + ((sum >> 63) & 1)
}

// Hash computes a record's final published HASH directly from its field
// descriptions and the HASH values of any struct-typed fields it contains,
// in declaration order.
func Hash(fields []FieldHash, nestedHashes ...uint64) uint64 {
	return Finalize(PreHash(fields), nestedHashes...)
}
