// Package compress provides optional request-body compression codecs for the
// HTTP transport.
//
// Flush payloads are line-protocol text and compress well. When a codec is
// configured, the transport compresses each flush body once (the same
// compressed bytes are reused across retries) and sets the matching
// Content-Encoding header.
//
// Available codecs:
//   - gzip: klauspost/compress, widest server support
//   - zstd: cgo (valyala/gozstd) or pure-Go (klauspost/compress/zstd),
//     selected at build time
//   - lz4: pierrec/lz4 frame format
//   - none: pass-through (the default)
package compress
