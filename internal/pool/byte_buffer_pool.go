// Package pool provides pooled byte buffers for flush snapshots.
//
// When the Sender runs in copy-on-flush mode, every flush copies the
// sendable region into a scratch buffer so the caller can keep writing rows
// while the send is in flight. Pooling those buffers keeps steady-state
// flushing allocation-free.
package pool

import "sync"

const (
	// FlushBufferDefaultSize matches the default initial row buffer size, so
	// a pooled buffer usually absorbs a whole flush without growing.
	FlushBufferDefaultSize = 64 * 1024

	// FlushBufferMaxThreshold is the largest buffer the pool will retain.
	// Oversized buffers from exceptional flushes are dropped to the GC so a
	// single huge payload does not pin memory forever.
	FlushBufferMaxThreshold = 4 * 1024 * 1024
)

// ByteBuffer is a reusable byte slice wrapper handed out by the pool.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer while retaining its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Set replaces the buffer content with a copy of data.
func (bb *ByteBuffer) Set(data []byte) {
	bb.B = append(bb.B[:0], data...)
}

var flushBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{B: make([]byte, 0, FlushBufferDefaultSize)}
	},
}

// GetFlushBuffer obtains an empty ByteBuffer from the pool.
func GetFlushBuffer() *ByteBuffer {
	bb, _ := flushBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutFlushBuffer returns a ByteBuffer to the pool. Buffers grown past
// FlushBufferMaxThreshold are discarded.
func PutFlushBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > FlushBufferMaxThreshold {
		return
	}
	flushBufferPool.Put(bb)
}
