package compress

import (
	"fmt"
	"strings"
)

// Type identifies a request-body compression algorithm.
type Type uint8

const (
	// TypeNone disables request-body compression.
	TypeNone Type = iota
	// TypeGzip selects gzip compression (Content-Encoding: gzip).
	TypeGzip
	// TypeZstd selects Zstandard compression (Content-Encoding: zstd).
	TypeZstd
	// TypeLZ4 selects LZ4 frame compression (Content-Encoding: lz4).
	TypeLZ4
)

// String returns the canonical name of the compression type, which is also
// its Content-Encoding token.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeGzip:
		return "gzip"
	case TypeZstd:
		return "zstd"
	case TypeLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseType parses a compression type name ("none", "gzip", "zstd", "lz4").
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "", "none", "off":
		return TypeNone, nil
	case "gzip":
		return TypeGzip, nil
	case "zstd":
		return TypeZstd, nil
	case "lz4":
		return TypeLZ4, nil
	default:
		return TypeNone, fmt.Errorf("unknown compression type: %q", s)
	}
}

// Codec compresses flush payloads before they are handed to the HTTP
// transport.
//
// Memory management:
//   - The returned slice is newly allocated and owned by the caller
//   - The input slice is not modified
//   - Internal compressor state may be pooled and reused
//
// Thread safety: all codecs in this package are safe for concurrent use.
type Codec interface {
	// Encoding returns the Content-Encoding token for the codec, or the
	// empty string when the payload is passed through unencoded.
	Encoding() string

	// Compress compresses the payload and returns the result.
	Compress(data []byte) ([]byte, error)
}

// New creates the codec for the given compression type.
func New(t Type) (Codec, error) {
	switch t {
	case TypeNone:
		return NewNoopCodec(), nil
	case TypeGzip:
		return NewGzipCodec(), nil
	case TypeZstd:
		return NewZstdCodec(), nil
	case TypeLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("unknown compression type: %v", t)
	}
}
