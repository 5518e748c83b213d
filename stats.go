package ilp

import "sync/atomic"

// Stats is a point-in-time snapshot of a Sender's delivery counters.
type Stats struct {
	// RowsWritten is the number of rows closed with At/AtNow.
	RowsWritten uint64
	// Flushes is the number of successful flushes.
	Flushes uint64
	// Retries is the number of HTTP send attempts beyond the first.
	Retries uint64
	// BytesSent is the total uncompressed payload bytes delivered.
	BytesSent uint64
}

// senderStats holds the live counters. The transport increments retries
// from inside the retry loop, the Sender increments the rest.
type senderStats struct {
	rowsWritten atomic.Uint64
	flushes     atomic.Uint64
	retries     atomic.Uint64
	bytesSent   atomic.Uint64
}

func (s *senderStats) snapshot() Stats {
	return Stats{
		RowsWritten: s.rowsWritten.Load(),
		Flushes:     s.flushes.Load(),
		Retries:     s.retries.Load(),
		BytesSent:   s.bytesSent.Load(),
	}
}
