package compress

// ZstdCodec compresses request bodies with Zstandard.
//
// Two implementations are selected at build time: a cgo binding
// (valyala/gozstd) when cgo is available, and a pure-Go implementation
// (klauspost/compress/zstd) otherwise. Both produce standard zstd frames.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a Zstandard request-body codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}

// Encoding returns the Content-Encoding token "zstd".
func (c ZstdCodec) Encoding() string {
	return "zstd"
}
