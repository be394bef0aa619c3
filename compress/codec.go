// Package compress provides optional payload compression codecs for
// published LCM messages. Compression is never applied by default: the
// wire format is bit-exact with reference LCM 0.9 unless a provider is
// explicitly configured with a codec.
package compress

import "fmt"

// ID identifies a codec on the wire. It is written as a single leading byte
// ahead of the compressed payload when, and only when, a non-NoOp codec is
// attached to a provider.
type ID byte

const (
	NoOp ID = iota
	LZ4
	S2
	Zstd
)

func (id ID) String() string {
	switch id {
	case NoOp:
		return "none"
	case LZ4:
		return "lz4"
	case S2:
		return "s2"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", byte(id))
	}
}

// Compressor compresses a published payload before fragmentation.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor's transform on receipt.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions and identifies itself on the wire.
type Codec interface {
	ID() ID
	Compressor
	Decompressor
}

// ByID returns the built-in codec for id.
func ByID(id ID) (Codec, error) {
	switch id {
	case NoOp:
		return NoOpCodec{}, nil
	case LZ4:
		return LZ4Codec{}, nil
	case S2:
		return S2Codec{}, nil
	case Zstd:
		return ZstdCodec{}, nil
	default:
		return nil, fmt.Errorf("compress: unknown codec id %d", byte(id))
	}
}

// Envelope wraps a compressed payload with its codec's 1-byte ID prefix.
// When codec is nil or NoOp, Envelope is a no-op: the payload passes through
// unmodified and no byte is prepended, preserving exact wire compatibility
// with a default, compression-free provider.
func Envelope(codec Codec, payload []byte) ([]byte, error) {
	if codec == nil || codec.ID() == NoOp {
		return payload, nil
	}
	compressed, err := codec.Compress(payload)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(compressed))
	out = append(out, byte(codec.ID()))
	out = append(out, compressed...)
	return out, nil
}

// Unenvelope reverses Envelope. When codec is nil or NoOp, data is returned
// unmodified, matching a default, compression-free provider.
func Unenvelope(codec Codec, data []byte) ([]byte, error) {
	if codec == nil || codec.ID() == NoOp {
		return data, nil
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("compress: empty envelope")
	}
	got := ID(data[0])
	if got != codec.ID() {
		return nil, fmt.Errorf("compress: envelope codec id %s does not match configured codec %s", got, codec.ID())
	}
	return codec.Decompress(data[1:])
}
