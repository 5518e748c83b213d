package ilp

import (
	"fmt"

	"github.com/questline/ilp/errs"
)

// FlushError reports a flush whose payload could not be delivered: the HTTP
// retry budget was exhausted, or the TCP connection failed mid-write.
//
// The Sender's buffer is cleared of the affected rows either way, so Unsent
// is the only remaining owner of those bytes; callers that need stronger
// delivery guarantees can persist or re-send it through a fresh Sender.
type FlushError struct {
	// Unsent is the undelivered byte range, complete rows in wire format.
	Unsent []byte
	// Rows is the number of rows in Unsent.
	Rows int
	// Err is the last transport error observed.
	Err error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("%v: %d rows (%d bytes) not delivered: %v",
		errs.ErrFlushFailed, e.Rows, len(e.Unsent), e.Err)
}

// Unwrap exposes both errs.ErrFlushFailed and the underlying transport
// error to errors.Is/errors.As.
func (e *FlushError) Unwrap() []error {
	return []error{errs.ErrFlushFailed, e.Err}
}
