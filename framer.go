package zosdatum

import (
	"encoding/binary"
	"fmt"
	"io"
)

// UnknownLength means the decoder decides how many bytes the record uses.
const UnknownLength = -1

// Input is what a Framer reads from. ReadFull fails unless it fills p;
// ReadUpTo stops quietly at end of stream.
type Input interface {
	ReadFull(p []byte) (int, error)
	ReadUpTo(p []byte) (int, error)
}

// Status reports one framed record.
type Status struct {
	RecordLen int // payload length after the prefix, or UnknownLength
	BytesRead int // bytes pulled from the stream by this call
	Available int // valid bytes in the buffer, prefix included
}

// Framer locates one record in the stream. buf[:carried] already holds
// bytes of the record read ahead by the previous call or by a signature
// search.
type Framer interface {
	ReadRecord(in Input, buf []byte, carried int) (Status, error)
	PrefixLen() int
}

// FixedFramer reads records of RecordLen bytes. Zero means the layout's
// maximum length.
type FixedFramer struct {
	RecordLen int
}

func (f FixedFramer) PrefixLen() int { return 0 }

func (f FixedFramer) ReadRecord(in Input, buf []byte, carried int) (Status, error) {
	n := f.RecordLen
	if n == 0 {
		n = len(buf)
	}
	if n > len(buf) {
		return Status{}, fmt.Errorf("%w: %d > %d", ErrRecordTooLong, n, len(buf))
	}
	st := Status{RecordLen: n, Available: max(carried, n)}
	if carried < n {
		read, err := in.ReadFull(buf[carried:n])
		st.BytesRead = read
		if err != nil {
			return st, err
		}
	}
	return st, nil
}

// RDWFramer reads variable blocked records, each preceded by a 4-byte
// record descriptor word: big-endian length including the RDW, then two
// zero bytes.
type RDWFramer struct{}

const rdwLen = 4

func (RDWFramer) PrefixLen() int { return rdwLen }

func (RDWFramer) ReadRecord(in Input, buf []byte, carried int) (Status, error) {
	var st Status
	if carried < rdwLen {
		n, err := in.ReadFull(buf[carried:rdwLen])
		st.BytesRead = n
		if err != nil {
			return st, err
		}
	}
	length := int(binary.BigEndian.Uint16(buf))
	if length < rdwLen || buf[2] != 0 || buf[3] != 0 {
		return st, fmt.Errorf("%w: % x", ErrBadRDW, buf[:rdwLen])
	}
	if length > len(buf) {
		return st, fmt.Errorf("%w: %d > %d", ErrRecordTooLong, length, len(buf))
	}
	from := max(carried, rdwLen)
	if from < length {
		n, err := in.ReadFull(buf[from:length])
		st.BytesRead += n
		if err != nil {
			return st, err
		}
	}
	st.RecordLen = length - rdwLen
	st.Available = max(carried, length)
	return st, nil
}

// VariableFramer fills the buffer and lets the decoder find where the
// record ends. Bytes past the record are carried to the next one.
type VariableFramer struct{}

func (VariableFramer) PrefixLen() int { return 0 }

func (VariableFramer) ReadRecord(in Input, buf []byte, carried int) (Status, error) {
	n, err := in.ReadUpTo(buf[carried:])
	st := Status{RecordLen: UnknownLength, BytesRead: n, Available: carried + n}
	if err != nil {
		return st, err
	}
	if st.Available == 0 {
		return st, io.ErrUnexpectedEOF
	}
	return st, nil
}
