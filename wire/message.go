package wire

import (
	"bytes"

	"github.com/lcmproject/lcmgo/errs"
)

// Marshaler is implemented by every generated LCM record. Encode/Decode
// operate on the record's own fields only, never the leading type hash.
type Marshaler interface {
	Encode(buf *bytes.Buffer) error
	Decode(r *bytes.Reader) error
	Size() int
}

// Message is a Marshaler with a fixed structural type hash, used to frame a
// published payload and to validate one on receipt.
type Message interface {
	Marshaler
	Hash() uint64
}

// EncodeWithHash encodes a message preceded by its 8-byte big-endian type
// hash, exactly as it is carried on the wire.
func EncodeWithHash(m Message) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+m.Size()))
	if err := EncodeUint64(buf, m.Hash()); err != nil {
		return nil, err
	}
	if err := m.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeWithHash reads an 8-byte big-endian type hash from r, verifies it
// against want's Hash(), and if it matches decodes the remaining bytes into
// want. want is mutated in place and returned for convenience.
func DecodeWithHash[M Message](r *bytes.Reader, want M) (M, error) {
	found, err := DecodeUint64(r)
	if err != nil {
		return want, err
	}
	if found != want.Hash() {
		return want, &errs.HashMismatchError{Expected: want.Hash(), Found: found}
	}
	if err := want.Decode(r); err != nil {
		return want, err
	}
	return want, nil
}
