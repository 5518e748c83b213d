package compress

// NoopCodec passes payloads through without compression.
//
// It is the default codec: request-body compression is opt-in because small
// flushes gain little and the server must be configured to accept encoded
// bodies.
type NoopCodec struct{}

var _ Codec = (*NoopCodec)(nil)

// NewNoopCodec creates a pass-through codec.
func NewNoopCodec() NoopCodec {
	return NoopCodec{}
}

// Encoding returns the empty string: no Content-Encoding header is set.
func (c NoopCodec) Encoding() string {
	return ""
}

// Compress returns the input unchanged.
func (c NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}
