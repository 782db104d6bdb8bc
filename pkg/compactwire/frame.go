// Package compactwire frames serialized records for storage or hand-off:
// a short preamble, a length, the payload and a CRC32 trailer.
//
//	data:  'Z' 'W' 0x01 | len u32 | flags | [source offset i64] | payload | crc u32
//	error: 'Z' 'W' 0x02 | len u32 | code  | msgLen u16 | msg     | crc u32
//
// Integers are little-endian. len counts the whole frame including the
// CRC, which covers every byte after the preamble.
package compactwire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	magic0 = 'Z'
	magic1 = 'W'

	TypeData  byte = 0x01
	TypeError byte = 0x02

	// FlagHasSourceOffset marks a data frame carrying the stream offset
	// of the record it was decoded from.
	FlagHasSourceOffset byte = 1 << 0

	preambleLen = 3
	headerLen   = preambleLen + 4
	crcLen      = 4

	// MaxFrameLen bounds a single frame on read.
	MaxFrameLen = 1 << 28
)

// Error frame codes.
const (
	CodeDecode byte = 1 // record skipped after a decode error
	CodeStream byte = 2 // input stream failed
)

var (
	ErrBadMagic   = errors.New("compactwire: bad magic")
	ErrFrameType  = errors.New("compactwire: unexpected frame type")
	ErrLength     = errors.New("compactwire: length mismatch")
	ErrCRC        = errors.New("compactwire: crc mismatch")
	ErrNotARecord = errors.New("compactwire: payload is not a record")
)

func writePreamble(buf *bytes.Buffer, t byte) {
	buf.WriteByte(magic0)
	buf.WriteByte(magic1)
	buf.WriteByte(t)
}

func readPreamble(r *bytes.Reader) (byte, error) {
	var p [preambleLen]byte
	if _, err := io.ReadFull(r, p[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLength, err)
	}
	if p[0] != magic0 || p[1] != magic1 {
		return 0, fmt.Errorf("%w: %02x%02x", ErrBadMagic, p[0], p[1])
	}
	return p[2], nil
}

// DataFrame encodes and decodes data frames, reusing its buffer.
type DataFrame struct {
	buf *bytes.Buffer
	rdr *bytes.Reader
}

// ErrorFrame encodes and decodes error frames, reusing its buffer.
type ErrorFrame struct {
	buf *bytes.Buffer
	rdr *bytes.Reader
}
