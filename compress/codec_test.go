package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

var samplePayload = []byte(strings.Repeat("trades,sym=ETH-USD price=2615.54 1700000000000000000\n", 64))

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    Type
		wantErr bool
	}{
		{"", TypeNone, false},
		{"none", TypeNone, false},
		{"off", TypeNone, false},
		{"gzip", TypeGzip, false},
		{"GZIP", TypeGzip, false},
		{"zstd", TypeZstd, false},
		{"lz4", TypeLZ4, false},
		{"brotli", TypeNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNew_EncodingTokens(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{TypeNone, ""},
		{TypeGzip, "gzip"},
		{TypeZstd, "zstd"},
		{TypeLZ4, "lz4"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			codec, err := New(tt.typ)
			require.NoError(t, err)
			require.Equal(t, tt.want, codec.Encoding())
		})
	}
}

func TestNoopCodec_PassThrough(t *testing.T) {
	codec := NewNoopCodec()

	out, err := codec.Compress(samplePayload)
	require.NoError(t, err)
	require.Equal(t, samplePayload, out)
}

func TestGzipCodec_RoundTrip(t *testing.T) {
	codec := NewGzipCodec()

	compressed, err := codec.Compress(samplePayload)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(samplePayload))

	r, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	original, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, samplePayload, original)
}

func TestZstdCodec_RoundTrip(t *testing.T) {
	codec := NewZstdCodec()

	compressed, err := codec.Compress(samplePayload)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(samplePayload))

	// both build variants emit standard zstd frames
	decoder, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer decoder.Close()
	original, err := decoder.DecodeAll(compressed, nil)
	require.NoError(t, err)
	require.Equal(t, samplePayload, original)
}

func TestLZ4Codec_RoundTrip(t *testing.T) {
	codec := NewLZ4Codec()

	compressed, err := codec.Compress(samplePayload)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(samplePayload))

	original, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
	require.NoError(t, err)
	require.Equal(t, samplePayload, original)
}

func TestCodecs_EmptyInput(t *testing.T) {
	for _, typ := range []Type{TypeGzip, TypeZstd, TypeLZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			codec, err := New(typ)
			require.NoError(t, err)
			out, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, out)
		})
	}
}
