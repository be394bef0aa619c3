// Package wire implements the LCM binary encoding: fixed-width big-endian
// primitives, length-prefixed strings, and the structural type hash that
// identifies a message's shape on the wire.
package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/lcmproject/lcmgo/errs"
)

// EncodeInt8 writes a signed byte.
func EncodeInt8(buf *bytes.Buffer, v int8) error {
	return buf.WriteByte(byte(v))
}

// DecodeInt8 reads a signed byte.
func DecodeInt8(r *bytes.Reader) (int8, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	return int8(b), nil
}

// EncodeByte writes a raw byte (LCM's "byte" primitive, unsigned).
func EncodeByte(buf *bytes.Buffer, v byte) error {
	return buf.WriteByte(v)
}

// DecodeByte reads a raw byte.
func DecodeByte(r *bytes.Reader) (byte, error) {
	return r.ReadByte()
}

// EncodeInt16 writes a big-endian int16.
func EncodeInt16(buf *bytes.Buffer, v int16) error {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	_, err := buf.Write(tmp[:])
	return err
}

// DecodeInt16 reads a big-endian int16.
func DecodeInt16(r *bytes.Reader) (int16, error) {
	var tmp [2]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(tmp[:])), nil
}

// EncodeInt32 writes a big-endian int32.
func EncodeInt32(buf *bytes.Buffer, v int32) error {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	_, err := buf.Write(tmp[:])
	return err
}

// DecodeInt32 reads a big-endian int32.
func DecodeInt32(r *bytes.Reader) (int32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(tmp[:])), nil
}

// EncodeInt64 writes a big-endian int64.
func EncodeInt64(buf *bytes.Buffer, v int64) error {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	_, err := buf.Write(tmp[:])
	return err
}

// DecodeInt64 reads a big-endian int64.
func DecodeInt64(r *bytes.Reader) (int64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(tmp[:])), nil
}

// EncodeUint64 writes a big-endian uint64, used for the leading message hash.
func EncodeUint64(buf *bytes.Buffer, v uint64) error {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	_, err := buf.Write(tmp[:])
	return err
}

// DecodeUint64 reads a big-endian uint64.
func DecodeUint64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

// EncodeFloat writes a big-endian IEEE-754 single-precision float.
func EncodeFloat(buf *bytes.Buffer, v float32) error {
	return EncodeInt32(buf, int32(math.Float32bits(v)))
}

// DecodeFloat reads a big-endian IEEE-754 single-precision float.
func DecodeFloat(r *bytes.Reader) (float32, error) {
	bits, err := DecodeInt32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(bits)), nil
}

// EncodeDouble writes a big-endian IEEE-754 double-precision float.
func EncodeDouble(buf *bytes.Buffer, v float64) error {
	return EncodeInt64(buf, int64(math.Float64bits(v)))
}

// DecodeDouble reads a big-endian IEEE-754 double-precision float.
func DecodeDouble(r *bytes.Reader) (float64, error) {
	bits, err := DecodeInt64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(bits)), nil
}

// EncodeBool writes a boolean as a single byte, 0 or 1.
func EncodeBool(buf *bytes.Buffer, v bool) error {
	if v {
		return buf.WriteByte(1)
	}
	return buf.WriteByte(0)
}

// DecodeBool reads a boolean, rejecting any byte other than 0 or 1.
func DecodeBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &errs.InvalidBooleanError{Value: int8(b)}
	}
}

// EncodeString writes a length-prefixed, NUL-terminated UTF-8 string. The
// length prefix counts the terminating NUL.
func EncodeString(buf *bytes.Buffer, v string) error {
	n := int32(len(v)) + 1
	if err := EncodeInt32(buf, n); err != nil {
		return err
	}
	if _, err := buf.WriteString(v); err != nil {
		return err
	}
	return buf.WriteByte(0)
}

// DecodeString reads a length-prefixed, NUL-terminated UTF-8 string.
func DecodeString(r *bytes.Reader) (string, error) {
	n, err := DecodeInt32(r)
	if err != nil {
		return "", err
	}
	if n <= 0 {
		return "", &errs.InvalidSizeError{Size: int64(n)}
	}
	strLen := int(n) - 1
	buf := make([]byte, strLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", errs.ErrUTF8
	}
	term, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	if term != 0 {
		return "", errs.ErrMissingNullTerminator
	}
	return string(buf), nil
}

// StringSize returns the encoded size in bytes of a string value.
func StringSize(v string) int {
	return 4 + len(v) + 1
}
