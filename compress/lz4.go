package compress

import (
	"bytes"

	"github.com/pierrec/lz4/v4"
)

type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates an LZ4 request-body codec. Payloads are written in the
// LZ4 frame format, which is self-describing and suitable for streaming
// decompression on the server side.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Encoding returns the Content-Encoding token "lz4".
func (c LZ4Codec) Encoding() string {
	return "lz4"
}

// Compress compresses the payload into a single LZ4 frame.
func (c LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Grow(lz4.CompressBlockBound(len(data)))

	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
