package compress

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// gzipWriterPool pools gzip writers for reuse. Writers carry sizeable
// internal state, so reuse avoids a large allocation per flush.
var gzipWriterPool = sync.Pool{
	New: func() any {
		w, err := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		if err != nil {
			// BestSpeed is always a valid level
			panic(fmt.Sprintf("failed to create gzip writer for pool: %v", err))
		}
		return w
	},
}

type GzipCodec struct{}

var _ Codec = (*GzipCodec)(nil)

// NewGzipCodec creates a gzip request-body codec using the fastest
// compression level. Flush payloads are line-protocol text, which compresses
// well even at low effort.
func NewGzipCodec() GzipCodec {
	return GzipCodec{}
}

// Encoding returns the Content-Encoding token "gzip".
func (c GzipCodec) Encoding() string {
	return "gzip"
}

// Compress compresses the payload with gzip.
func (c GzipCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(data) / 2)

	w, _ := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
