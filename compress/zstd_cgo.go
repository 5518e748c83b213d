//go:build cgo

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses the payload using the cgo Zstandard implementation at
// level 3, the balanced default for text payloads.
func (c ZstdCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, 3), nil
}
