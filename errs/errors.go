// Package errs defines the sentinel errors used across the ilp module.
//
// Callers can use errors.Is to check for specific error conditions:
//
//	if errors.Is(err, errs.ErrProtocolOrder) {
//	    // illegal call sequence for the current row
//	}
//
// Functions across the module wrap these sentinels with additional context
// using fmt.Errorf("%w: ...", errs.ErrX).
package errs

import "errors"

var (
	// ErrInvalidName indicates a table or column name that is empty, too long,
	// or contains characters the wire protocol reserves.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidTimestamp indicates a designated timestamp literal that is not
	// composed entirely of decimal digits.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidValue indicates a value the wire protocol cannot represent,
	// such as NaN, an infinity, or a string containing a newline.
	ErrInvalidValue = errors.New("invalid value")

	// ErrProtocolOrder indicates an illegal call sequence for the current row,
	// e.g. adding a symbol after a field column or writing two table names.
	ErrProtocolOrder = errors.New("illegal protocol order")

	// ErrEmptyRow indicates an attempt to close a row that has neither a
	// symbol nor a field column.
	ErrEmptyRow = errors.New("empty row")

	// ErrBufferLimit indicates that the row buffer would have to grow beyond
	// its configured maximum size.
	ErrBufferLimit = errors.New("buffer size limit exceeded")

	// ErrAuthFailure indicates a failed TCP challenge-response handshake or a
	// rejected credential.
	ErrAuthFailure = errors.New("authentication failure")

	// ErrTransientTransport indicates a transport failure that is considered
	// retryable, such as a connection error or a retryable HTTP status.
	ErrTransientTransport = errors.New("transient transport failure")

	// ErrFlushFailed indicates that a flush exhausted its retry budget and the
	// buffered rows were not delivered.
	ErrFlushFailed = errors.New("flush failed")

	// ErrInvalidConf indicates a malformed configuration string or an unknown
	// configuration parameter.
	ErrInvalidConf = errors.New("invalid configuration")
)
