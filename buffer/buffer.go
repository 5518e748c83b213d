package buffer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/questline/ilp/errs"
)

// Default sizing for a new Buffer. The initial size matches the 64KiB
// reservation the reference sender makes on connect.
const (
	DefaultInitSize   = 64 * 1024
	DefaultMaxSize    = 100 * 1024 * 1024
	DefaultMaxNameLen = 127
)

// rowState tracks the construction phase of the row currently being written.
//
// Legal transitions:
//
//	rowEmpty -> rowAtTable            (Table)
//	rowAtTable -> rowInSymbols        (Symbol)
//	rowAtTable -> rowInColumns        (any field column)
//	rowInSymbols -> rowInSymbols      (Symbol)
//	rowInSymbols -> rowInColumns      (any field column)
//	rowInColumns -> rowInColumns      (any field column)
//	rowInSymbols|rowInColumns -> rowEmpty (At/AtNow)
type rowState uint8

const (
	rowEmpty     rowState = iota // no table name written for the current row
	rowAtTable                   // table name written, row still has no columns
	rowInSymbols                 // at least one symbol column written
	rowInColumns                 // at least one field column written, symbols now illegal
)

// Buffer accumulates wire-protocol rows in a growable byte region.
//
// Bytes in [0, lastRowEnd) are always complete, well-formed rows ready to
// send; bytes in [lastRowEnd, len) belong to the row under construction.
// A failed row-building call leaves the buffer byte-identical to its state
// before the call.
//
// Note: The Buffer is NOT thread-safe. Each instance must be used by a single
// goroutine at a time.
type Buffer struct {
	buf        []byte
	lastRowEnd int
	rowCount   int
	state      rowState
	maxSize    int
	maxNameLen int
	scratch    [32]byte // numeric formatting staging area
}

// New creates a Buffer with the given initial size, maximum size and maximum
// name length. Non-positive arguments fall back to the package defaults.
func New(initSize, maxSize, maxNameLen int) *Buffer {
	if initSize <= 0 {
		initSize = DefaultInitSize
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if maxNameLen <= 0 {
		maxNameLen = DefaultMaxNameLen
	}
	if initSize > maxSize {
		initSize = maxSize
	}

	return &Buffer{
		buf:        make([]byte, 0, initSize),
		maxSize:    maxSize,
		maxNameLen: maxNameLen,
	}
}

// Table starts a new row by writing the escaped table name.
//
// It must be the first call for a row. Calling it again before the row is
// closed returns errs.ErrProtocolOrder.
func (b *Buffer) Table(name string) error {
	if b.state != rowEmpty {
		return fmt.Errorf("%w: table name already written for the current row", errs.ErrProtocolOrder)
	}
	if err := ValidateTableName(name, b.maxNameLen); err != nil {
		return err
	}
	if err := b.ensure(escapedNameLen(name)); err != nil {
		return err
	}
	b.appendEscapedName(name)
	b.state = rowAtTable

	return nil
}

// Symbol writes a symbol column (",name=value").
//
// Symbols are legal only after Table and before any field column. The value
// is escaped for comma, equals, space, newline and backslash.
func (b *Buffer) Symbol(name, value string) error {
	switch b.state {
	case rowEmpty:
		return fmt.Errorf("%w: table name must be written before symbol %q", errs.ErrProtocolOrder, name)
	case rowInColumns:
		return fmt.Errorf("%w: symbol %q cannot follow a field column", errs.ErrProtocolOrder, name)
	case rowAtTable, rowInSymbols:
	}
	if err := ValidateColumnName(name, b.maxNameLen); err != nil {
		return err
	}
	if err := b.ensure(1 + escapedNameLen(name) + 1 + escapedValueLen(value)); err != nil {
		return err
	}
	b.buf = append(b.buf, ',')
	b.appendEscapedName(name)
	b.buf = append(b.buf, '=')
	b.appendEscapedValue(value)
	b.state = rowInSymbols

	return nil
}

// StringColumn writes a string field column. The value is double-quoted with
// internal quotes and backslashes escaped. Values containing newlines are
// rejected with errs.ErrInvalidValue.
func (b *Buffer) StringColumn(name, value string) error {
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: string value for column %q contains a newline", errs.ErrInvalidValue, name)
	}
	if err := b.columnKey(name, quotedLen(value)); err != nil {
		return err
	}
	b.buf = append(b.buf, '"')
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '"' || c == '\\' {
			b.buf = append(b.buf, '\\')
		}
		b.buf = append(b.buf, c)
	}
	b.buf = append(b.buf, '"')
	b.state = rowInColumns

	return nil
}

// BoolColumn writes a boolean field column as a single 't' or 'f'.
func (b *Buffer) BoolColumn(name string, value bool) error {
	if err := b.columnKey(name, 1); err != nil {
		return err
	}
	if value {
		b.buf = append(b.buf, 't')
	} else {
		b.buf = append(b.buf, 'f')
	}
	b.state = rowInColumns

	return nil
}

// Float64Column writes a float field column using the shortest decimal
// representation that round-trips. NaN and infinities have no wire
// representation and are rejected with errs.ErrInvalidValue.
func (b *Buffer) Float64Column(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: column %q cannot hold %v", errs.ErrInvalidValue, name, value)
	}
	num := strconv.AppendFloat(b.scratch[:0], value, 'g', -1, 64)
	if err := b.columnKey(name, len(num)); err != nil {
		return err
	}
	b.buf = append(b.buf, num...)
	b.state = rowInColumns

	return nil
}

// Int64Column writes an integer field column: decimal digits followed by the
// 'i' suffix.
func (b *Buffer) Int64Column(name string, value int64) error {
	num := strconv.AppendInt(b.scratch[:0], value, 10)
	if err := b.columnKey(name, len(num)+1); err != nil {
		return err
	}
	b.buf = append(b.buf, num...)
	b.buf = append(b.buf, 'i')
	b.state = rowInColumns

	return nil
}

// TimestampColumn writes a timestamp field column: integer microseconds
// followed by the 't' suffix.
func (b *Buffer) TimestampColumn(name string, micros int64) error {
	num := strconv.AppendInt(b.scratch[:0], micros, 10)
	if err := b.columnKey(name, len(num)+1); err != nil {
		return err
	}
	b.buf = append(b.buf, num...)
	b.buf = append(b.buf, 't')
	b.state = rowInColumns

	return nil
}

// At closes the current row with the given designated timestamp in
// nanoseconds.
//
// Returns errs.ErrEmptyRow if the row has neither a symbol nor a field
// column, errs.ErrProtocolOrder if no row is in progress, and
// errs.ErrInvalidTimestamp for a negative timestamp.
func (b *Buffer) At(nanos int64) error {
	if nanos < 0 {
		return fmt.Errorf("%w: designated timestamp cannot be negative, got %d", errs.ErrInvalidTimestamp, nanos)
	}
	if err := b.checkCloseable(); err != nil {
		return err
	}
	num := strconv.AppendInt(b.scratch[:0], nanos, 10)
	if err := b.ensure(1 + len(num) + 1); err != nil {
		return err
	}
	b.buf = append(b.buf, ' ')
	b.buf = append(b.buf, num...)
	b.buf = append(b.buf, '\n')
	b.closeRow()

	return nil
}

// AtLiteral closes the current row with a preformatted designated timestamp
// literal, validated to be all decimal digits.
func (b *Buffer) AtLiteral(literal string) error {
	if err := ValidateTimestampLiteral(literal); err != nil {
		return err
	}
	if err := b.checkCloseable(); err != nil {
		return err
	}
	if err := b.ensure(1 + len(literal) + 1); err != nil {
		return err
	}
	b.buf = append(b.buf, ' ')
	b.buf = append(b.buf, literal...)
	b.buf = append(b.buf, '\n')
	b.closeRow()

	return nil
}

// AtNow closes the current row without a designated timestamp, leaving the
// timestamp column assignment to the server.
func (b *Buffer) AtNow() error {
	if err := b.checkCloseable(); err != nil {
		return err
	}
	if err := b.ensure(1); err != nil {
		return err
	}
	b.buf = append(b.buf, '\n')
	b.closeRow()

	return nil
}

// Rows returns the number of complete rows buffered since the last ClearSent
// or Reset.
func (b *Buffer) Rows() int {
	return b.rowCount
}

// Len returns the total number of buffered bytes, including the row under
// construction.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the backing byte region.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Sendable returns a view over the complete-row region [0, lastRowEnd).
//
// The view aliases the live buffer: the caller must not keep writing rows
// while the view is in flight. Use CopySendable for an independent copy.
func (b *Buffer) Sendable() []byte {
	return b.buf[:b.lastRowEnd]
}

// HasSendable reports whether at least one complete row is buffered.
func (b *Buffer) HasSendable() bool {
	return b.lastRowEnd > 0
}

// CopySendable appends an independent copy of the complete-row region to dst
// and returns the result. The caller may keep writing into the buffer while
// the copy is in flight.
func (b *Buffer) CopySendable(dst []byte) []byte {
	return append(dst[:0], b.buf[:b.lastRowEnd]...)
}

// ClearSent discards the complete-row region, compacting the buffer down to
// just the row under construction, and resets the row counter.
func (b *Buffer) ClearSent() {
	if b.lastRowEnd == 0 {
		b.rowCount = 0
		return
	}
	n := copy(b.buf, b.buf[b.lastRowEnd:])
	b.buf = b.buf[:n]
	b.lastRowEnd = 0
	b.rowCount = 0
}

// Reset discards all buffered bytes, including any partially-written row,
// and returns the buffer to its initial state. The backing capacity is kept.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.lastRowEnd = 0
	b.rowCount = 0
	b.state = rowEmpty
}

// Resize reallocates the backing region to newSize bytes, copying existing
// content. A newSize below the current content length is clamped up so data
// is never truncated. A newSize beyond the configured maximum returns
// errs.ErrBufferLimit.
func (b *Buffer) Resize(newSize int) error {
	if newSize > b.maxSize {
		return fmt.Errorf("%w: requested size %d exceeds maximum %d", errs.ErrBufferLimit, newSize, b.maxSize)
	}
	if newSize < len(b.buf) {
		newSize = len(b.buf)
	}
	nb := make([]byte, len(b.buf), newSize)
	copy(nb, b.buf)
	b.buf = nb

	return nil
}

// columnKey validates the column name and writes the separator, escaped name
// and '=' once it is guaranteed the whole column (key and valueLen bytes of
// value) fits. Nothing is written on error.
func (b *Buffer) columnKey(name string, valueLen int) error {
	if b.state == rowEmpty {
		return fmt.Errorf("%w: table name must be written before column %q", errs.ErrProtocolOrder, name)
	}
	if err := ValidateColumnName(name, b.maxNameLen); err != nil {
		return err
	}
	if err := b.ensure(1 + escapedNameLen(name) + 1 + valueLen); err != nil {
		return err
	}
	if b.state == rowInColumns {
		b.buf = append(b.buf, ',')
	} else {
		b.buf = append(b.buf, ' ')
	}
	b.appendEscapedName(name)
	b.buf = append(b.buf, '=')

	return nil
}

func (b *Buffer) checkCloseable() error {
	switch b.state {
	case rowEmpty:
		return fmt.Errorf("%w: no row in progress", errs.ErrProtocolOrder)
	case rowAtTable:
		return fmt.Errorf("%w: row has neither a symbol nor a field column", errs.ErrEmptyRow)
	case rowInSymbols, rowInColumns:
	}

	return nil
}

func (b *Buffer) closeRow() {
	b.lastRowEnd = len(b.buf)
	b.rowCount++
	b.state = rowEmpty
}

// ensure grows the backing region so n more bytes can be appended without
// reallocation. Growth doubles the capacity until the requirement fits,
// capped at the configured maximum size.
func (b *Buffer) ensure(n int) error {
	need := len(b.buf) + n
	if need <= cap(b.buf) {
		return nil
	}
	if need > b.maxSize {
		return fmt.Errorf("%w: need %d bytes, maximum is %d", errs.ErrBufferLimit, need, b.maxSize)
	}
	newCap := cap(b.buf)
	if newCap == 0 {
		newCap = DefaultInitSize
	}
	for newCap < need {
		newCap *= 2
	}
	if newCap > b.maxSize {
		newCap = b.maxSize
	}
	nb := make([]byte, len(b.buf), newCap)
	copy(nb, b.buf)
	b.buf = nb

	return nil
}

// isNameEscapable reports whether c needs a backslash prefix when it appears
// in a table, symbol or column name on the wire.
func isNameEscapable(c byte) bool {
	return c == ',' || c == '=' || c == ' ' || c == '\\'
}

func escapedNameLen(name string) int {
	n := len(name)
	for i := 0; i < len(name); i++ {
		if isNameEscapable(name[i]) {
			n++
		}
	}

	return n
}

func (b *Buffer) appendEscapedName(name string) {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isNameEscapable(c) {
			b.buf = append(b.buf, '\\')
		}
		b.buf = append(b.buf, c)
	}
}

// isValueEscapable reports whether c needs a backslash prefix when it appears
// in a symbol value on the wire.
func isValueEscapable(c byte) bool {
	return c == ',' || c == '=' || c == ' ' || c == '\n' || c == '\\'
}

func escapedValueLen(value string) int {
	n := len(value)
	for i := 0; i < len(value); i++ {
		if isValueEscapable(value[i]) {
			n++
		}
	}

	return n
}

func (b *Buffer) appendEscapedValue(value string) {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isValueEscapable(c) {
			b.buf = append(b.buf, '\\')
		}
		b.buf = append(b.buf, c)
	}
}

// quotedLen returns the encoded length of value as a double-quoted string
// with internal quotes and backslashes escaped.
func quotedLen(value string) int {
	n := len(value) + 2
	for i := 0; i < len(value); i++ {
		if value[i] == '"' || value[i] == '\\' {
			n++
		}
	}

	return n
}
