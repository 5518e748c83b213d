// Package buffer implements the row buffer encoder for the line-oriented
// wire protocol.
//
// A Buffer accumulates rows built through an ordered call chain:
//
//	buf := buffer.New(0, 0, 0)
//	buf.Table("trades")
//	buf.Symbol("sym", "ETH-USD")
//	buf.Float64Column("price", 2615.54)
//	buf.At(1700000000000000000)
//
// which produces one wire line per row:
//
//	trades,sym=ETH-USD price=2615.54 1700000000000000000\n
//
// The call order per row is strict: the table name first, then zero or more
// symbols, then zero or more field columns, then At/AtNow to close the row.
// At least one symbol or field column is required before a row can close.
// Violations are reported with the sentinels in the errs package and leave
// the buffer unmodified.
//
// The buffer tracks the end of the last fully-closed row, so the sendable
// region always contains complete rows even while a new row is under
// construction.
package buffer
