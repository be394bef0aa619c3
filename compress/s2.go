package compress

import "github.com/klauspost/compress/s2"

// S2Codec compresses published payloads with S2, klauspost/compress's
// Snappy-compatible, speed-oriented codec.
type S2Codec struct{}

var _ Codec = S2Codec{}

func (c S2Codec) ID() ID { return S2 }

func (c S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Encode(nil, data), nil
}

func (c S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Decode(nil, data)
}
