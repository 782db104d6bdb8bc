package compactwire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/zosdatum/pkg/value"
)

func record() *value.Record {
	rec := value.NewRecord(3)
	rec.Set("CUSTOMER-ID", int64(1))
	rec.Set("CUSTOMER-NAME", "JOHN SMITH")
	rec.Set("BALANCE", decimal.RequireFromString("1234.56"))
	return rec
}

func TestDataFrameRoundTrip(t *testing.T) {
	var df DataFrame
	payload := []byte("hello payload")

	out, err := df.EncodeDataFrame(payload, FlagHasSourceOffset, 4096)
	require.NoError(t, err)
	assert.Equal(t, []byte{'Z', 'W', TypeData}, out[:3])
	assert.Equal(t, uint32(len(out)), binary.LittleEndian.Uint32(out[3:]))

	frame := bytes.Clone(out)
	got, off, flags, err := df.DecodeDataFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, int64(4096), off)
	assert.Equal(t, FlagHasSourceOffset, flags)
}

func TestDataFrameWithoutOffset(t *testing.T) {
	var df DataFrame
	out, err := df.EncodeDataFrame([]byte{1, 2, 3}, 0, 99)
	require.NoError(t, err)
	assert.Len(t, out, headerLen+1+3+crcLen)

	got, off, flags, err := df.DecodeDataFrame(bytes.Clone(out))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
	assert.Zero(t, off)
	assert.Zero(t, flags)
}

func TestDataFrameEmptyPayload(t *testing.T) {
	var df DataFrame
	out, err := df.EncodeDataFrame(nil, 0, 0)
	require.NoError(t, err)
	got, _, _, err := df.DecodeDataFrame(bytes.Clone(out))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDataFrameCorruption(t *testing.T) {
	var df DataFrame
	out, err := df.EncodeDataFrame([]byte("payload"), 0, 0)
	require.NoError(t, err)

	t.Run("crc", func(t *testing.T) {
		frame := bytes.Clone(out)
		frame[len(frame)-crcLen-1] ^= 0xFF
		_, _, _, err := df.DecodeDataFrame(frame)
		assert.ErrorIs(t, err, ErrCRC)
	})
	t.Run("magic", func(t *testing.T) {
		frame := bytes.Clone(out)
		frame[0] = 'X'
		_, _, _, err := df.DecodeDataFrame(frame)
		assert.ErrorIs(t, err, ErrBadMagic)
	})
	t.Run("truncated", func(t *testing.T) {
		frame := bytes.Clone(out[:len(out)-2])
		_, _, _, err := df.DecodeDataFrame(frame)
		assert.ErrorIs(t, err, ErrLength)
	})
	t.Run("too short", func(t *testing.T) {
		_, _, _, err := df.DecodeDataFrame([]byte{'Z'})
		assert.ErrorIs(t, err, ErrLength)
	})
	t.Run("wrong type", func(t *testing.T) {
		var ef ErrorFrame
		_, _, err := ef.DecodeErrorFrame(bytes.Clone(out))
		assert.ErrorIs(t, err, ErrFrameType)
	})
}

func TestErrorFrameRoundTrip(t *testing.T) {
	var ef ErrorFrame
	out, err := ef.EncodeErrorFrame(CodeDecode, []byte("CUSTOMER-ID at offset 0: invalid packed"))
	require.NoError(t, err)

	code, msg, err := ef.DecodeErrorFrame(bytes.Clone(out))
	require.NoError(t, err)
	assert.Equal(t, CodeDecode, code)
	assert.Equal(t, "CUSTOMER-ID at offset 0: invalid packed", string(msg))
}

func TestErrorFrameTruncatesLongMessage(t *testing.T) {
	var ef ErrorFrame
	out, err := ef.EncodeErrorFrame(CodeStream, bytes.Repeat([]byte{'x'}, 70000))
	require.NoError(t, err)
	_, msg, err := ef.DecodeErrorFrame(bytes.Clone(out))
	require.NoError(t, err)
	assert.Len(t, msg, 65535)
}

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecord(record(), 0))
	require.NoError(t, w.WriteError(CodeDecode, "bad record"))
	require.NoError(t, w.WriteRecord(record(), -1))
	assert.Equal(t, 3, w.Frames())

	r := NewReader(&buf)
	m, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeData, m.Type)
	assert.Equal(t, int64(0), m.SourceOffset)
	assert.True(t, value.Equal(record(), m.Record))

	m, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, TypeError, m.Type)
	assert.Equal(t, CodeDecode, m.Code)
	assert.Equal(t, "bad record", m.Text)

	m, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), m.SourceOffset)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamTruncated(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteRecord(record(), 10))

	data := buf.Bytes()
	r := NewReader(bytes.NewReader(data[:len(data)-3]))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	r = NewReader(bytes.NewReader(data[:4]))
	_, err = r.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStreamBadLength(t *testing.T) {
	frame := []byte{'Z', 'W', TypeData, 0xFF, 0xFF, 0xFF, 0x7F}
	_, err := NewReader(bytes.NewReader(frame)).Next()
	assert.ErrorIs(t, err, ErrLength)
}

func TestStreamLargeRecordGrowsBuffer(t *testing.T) {
	rec := value.NewRecord(1)
	rec.Set("FILLER", bytes.Repeat([]byte{0x40}, 4096))

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteRecord(rec, 0))
	m, err := NewReader(&buf).Next()
	require.NoError(t, err)
	assert.True(t, value.Equal(rec, m.Record))
}

func BenchmarkWriteRecord(b *testing.B) {
	w := NewWriter(io.Discard)
	rec := record()
	for b.Loop() {
		if err := w.WriteRecord(rec, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadRecord(b *testing.B) {
	var buf bytes.Buffer
	require.NoError(b, NewWriter(&buf).WriteRecord(record(), 0))
	frame := buf.Bytes()
	for b.Loop() {
		if _, err := NewReader(bytes.NewReader(frame)).Next(); err != nil {
			b.Fatal(err)
		}
	}
}
