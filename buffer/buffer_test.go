package buffer

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/questline/ilp/errs"
)

// ==============================================================================
// Row Encoding Tests
// ==============================================================================

func TestBuffer_TradesExample(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("trades"))
	require.NoError(t, buf.Symbol("sym", "ETH-USD"))
	require.NoError(t, buf.Float64Column("price", 2615.54))
	require.NoError(t, buf.At(1700000000000000000))

	require.Equal(t, "trades,sym=ETH-USD price=2615.54 1700000000000000000\n", string(buf.Sendable()))
	require.Equal(t, 1, buf.Rows())
}

func TestBuffer_AllColumnTypes(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("readings"))
	require.NoError(t, buf.Symbol("loc", "lab1"))
	require.NoError(t, buf.StringColumn("note", "ok"))
	require.NoError(t, buf.BoolColumn("valid", true))
	require.NoError(t, buf.BoolColumn("stale", false))
	require.NoError(t, buf.Float64Column("temp", 21.5))
	require.NoError(t, buf.Int64Column("count", 42))
	require.NoError(t, buf.TimestampColumn("seen", 1700000000000000))
	require.NoError(t, buf.AtNow())

	want := "readings,loc=lab1 note=\"ok\",valid=t,stale=f,temp=21.5,count=42i,seen=1700000000000000t\n"
	require.Equal(t, want, string(buf.Sendable()))
}

func TestBuffer_MultipleRows(t *testing.T) {
	buf := New(0, 0, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Table("m"))
		require.NoError(t, buf.Int64Column("v", int64(i)))
		require.NoError(t, buf.AtNow())
	}

	require.Equal(t, "m v=0i\nm v=1i\nm v=2i\n", string(buf.Sendable()))
	require.Equal(t, 3, buf.Rows())
}

func TestBuffer_AtLiteral(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("m"))
	require.NoError(t, buf.Int64Column("v", 1))
	require.NoError(t, buf.AtLiteral("1700000000000000000"))
	require.Equal(t, "m v=1i 1700000000000000000\n", string(buf.Sendable()))

	require.NoError(t, buf.Table("m"))
	require.NoError(t, buf.Int64Column("v", 2))
	err := buf.AtLiteral("17e9")
	require.ErrorIs(t, err, errs.ErrInvalidTimestamp)
}

// ==============================================================================
// Escaping Tests
// ==============================================================================

func TestBuffer_SymbolValueEscaping(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Symbol("sym", "a,b c"))
	require.NoError(t, buf.AtNow())

	require.Equal(t, "t,sym=a\\,b\\ c\n", string(buf.Sendable()))
}

func TestBuffer_SymbolValueEscapesAllSpecials(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Symbol("s", "a=b\\c\nd"))
	require.NoError(t, buf.AtNow())

	require.Equal(t, "t,s=a\\=b\\\\c\\\nd\n", string(buf.Sendable()))
}

func TestBuffer_NameEscaping(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("my table"))
	require.NoError(t, buf.Symbol("my sym", "v"))
	require.NoError(t, buf.AtNow())

	require.Equal(t, "my\\ table,my\\ sym=v\n", string(buf.Sendable()))
}

func TestBuffer_StringColumnEscaping(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.StringColumn("s", `say "hi" \now`))
	require.NoError(t, buf.AtNow())

	require.Equal(t, "t s=\"say \\\"hi\\\" \\\\now\"\n", string(buf.Sendable()))
}

func TestBuffer_StringColumnRejectsNewline(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	err := buf.StringColumn("s", "line1\nline2")
	require.ErrorIs(t, err, errs.ErrInvalidValue)
}

// ==============================================================================
// Ordering / State Machine Tests
// ==============================================================================

func TestBuffer_TableTwiceFails(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	err := buf.Table("t2")
	require.ErrorIs(t, err, errs.ErrProtocolOrder)
}

func TestBuffer_SymbolAfterFieldFails(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	err := buf.Symbol("s", "v")
	require.ErrorIs(t, err, errs.ErrProtocolOrder)
}

func TestBuffer_ColumnBeforeTableFails(t *testing.T) {
	buf := New(0, 0, 0)

	err := buf.Int64Column("v", 1)
	require.ErrorIs(t, err, errs.ErrProtocolOrder)

	err = buf.Symbol("s", "v")
	require.ErrorIs(t, err, errs.ErrProtocolOrder)
}

func TestBuffer_CloseEmptyRowFails(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))

	err := buf.AtNow()
	require.ErrorIs(t, err, errs.ErrEmptyRow)

	err = buf.At(1700000000000000000)
	require.ErrorIs(t, err, errs.ErrEmptyRow)
}

func TestBuffer_CloseWithoutRowFails(t *testing.T) {
	buf := New(0, 0, 0)

	err := buf.AtNow()
	require.ErrorIs(t, err, errs.ErrProtocolOrder)
}

func TestBuffer_SymbolOnlyRowCloses(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Symbol("s", "v"))
	require.NoError(t, buf.AtNow())
	require.Equal(t, "t,s=v\n", string(buf.Sendable()))
}

// ==============================================================================
// Value Validation Tests
// ==============================================================================

func TestBuffer_FloatSpecialsRejected(t *testing.T) {
	buf := New(0, 0, 0)
	require.NoError(t, buf.Table("t"))

	tests := []struct {
		name  string
		value float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()
			err := buf.Float64Column("v", tt.value)
			require.ErrorIs(t, err, errs.ErrInvalidValue)
			require.Equal(t, before, buf.Len())
		})
	}
}

func TestBuffer_NegativeDesignatedTimestampRejected(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	err := buf.At(-1)
	require.ErrorIs(t, err, errs.ErrInvalidTimestamp)
}

func TestBuffer_FailedCallLeavesBufferIntact(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	snapshot := string(buf.Sendable()) + string(buf.buf[buf.lastRowEnd:])

	require.Error(t, buf.StringColumn("bad name?", "x"))
	require.Error(t, buf.Float64Column("v2", math.NaN()))
	require.Error(t, buf.Symbol("s", "late"))

	require.Equal(t, snapshot, string(buf.buf))
}

// ==============================================================================
// Growth / Resize Tests
// ==============================================================================

func TestBuffer_GrowsBeyondInitialSize(t *testing.T) {
	buf := New(16, 1024, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.StringColumn("v", strings.Repeat("x", 100)))
	require.NoError(t, buf.AtNow())
	require.Greater(t, buf.Cap(), 16)
	require.Equal(t, 1, buf.Rows())
}

func TestBuffer_GrowthBeyondMaxFails(t *testing.T) {
	buf := New(16, 64, 0)

	require.NoError(t, buf.Table("t"))
	err := buf.StringColumn("v", strings.Repeat("x", 100))
	require.ErrorIs(t, err, errs.ErrBufferLimit)
}

func TestBuffer_ResizeBeyondMaxFails(t *testing.T) {
	buf := New(16, 64, 0)

	err := buf.Resize(65)
	require.ErrorIs(t, err, errs.ErrBufferLimit)
}

func TestBuffer_ResizeNeverTruncates(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.StringColumn("v", strings.Repeat("x", 50)))
	require.NoError(t, buf.AtNow())
	content := string(buf.Sendable())

	require.NoError(t, buf.Resize(8))
	require.Equal(t, content, string(buf.Sendable()))
	require.GreaterOrEqual(t, buf.Cap(), len(content))
}

// ==============================================================================
// Sendable / Compaction Tests
// ==============================================================================

func TestBuffer_SendableExcludesPendingRow(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	require.NoError(t, buf.AtNow())
	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 2))

	require.Equal(t, "t v=1i\n", string(buf.Sendable()))
}

func TestBuffer_ClearSentKeepsPendingRow(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	require.NoError(t, buf.AtNow())
	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 2))

	buf.ClearSent()
	require.Equal(t, 0, buf.Rows())
	require.False(t, buf.HasSendable())

	// the pending row must finish cleanly after compaction
	require.NoError(t, buf.AtNow())
	require.Equal(t, "t v=2i\n", string(buf.Sendable()))
}

func TestBuffer_CopySendable(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	require.NoError(t, buf.AtNow())

	cp := buf.CopySendable(nil)
	buf.Reset()
	require.Equal(t, "t v=1i\n", string(cp))
}

func TestBuffer_ResetDropsPartialRow(t *testing.T) {
	buf := New(0, 0, 0)

	require.NoError(t, buf.Table("t"))
	require.NoError(t, buf.Int64Column("v", 1))
	buf.Reset()

	require.Equal(t, 0, buf.Len())
	require.Equal(t, 0, buf.Rows())
	// a fresh row must start from scratch
	require.NoError(t, buf.Table("t2"))
	require.NoError(t, buf.Int64Column("v", 2))
	require.NoError(t, buf.AtNow())
	require.Equal(t, "t2 v=2i\n", string(buf.Sendable()))
}
