package compactwire

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
)

// EncodeDataFrame serializes a payload. sourceOffset is written only when
// flags carries FlagHasSourceOffset. The returned slice is reused by the
// next call.
func (d *DataFrame) EncodeDataFrame(payload []byte, flags byte, sourceOffset int64) ([]byte, error) {
	if d.buf == nil {
		d.buf = &bytes.Buffer{}
	}
	d.buf.Reset()
	writePreamble(d.buf, TypeData)

	// reserve length + flags
	binary.Write(d.buf, binary.LittleEndian, uint32(0)) // length placeholder
	d.buf.WriteByte(flags)

	if flags&FlagHasSourceOffset != 0 {
		binary.Write(d.buf, binary.LittleEndian, sourceOffset)
	}
	d.buf.Write(payload)

	return seal(d.buf)
}

// EncodeErrorFrame builds an error frame with a code and message.
func (e *ErrorFrame) EncodeErrorFrame(code byte, msg []byte) ([]byte, error) {
	if e.buf == nil {
		e.buf = &bytes.Buffer{}
	}
	e.buf.Reset()
	if len(msg) > math.MaxUint16 {
		msg = msg[:math.MaxUint16]
	}
	writePreamble(e.buf, TypeError)
	binary.Write(e.buf, binary.LittleEndian, uint32(0))
	e.buf.WriteByte(code)
	binary.Write(e.buf, binary.LittleEndian, uint16(len(msg)))
	e.buf.Write(msg)

	return seal(e.buf)
}

// seal fills in the length and appends the CRC.
func seal(buf *bytes.Buffer) ([]byte, error) {
	total := buf.Len() + crcLen
	if total > MaxFrameLen {
		return nil, ErrLength
	}
	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[preambleLen:], uint32(total))

	crc := crc32.ChecksumIEEE(out[preambleLen:])
	buf.Write([]byte{0, 0, 0, 0})
	out = buf.Bytes()
	binary.LittleEndian.PutUint32(out[len(out)-crcLen:], crc)
	return out, nil
}
