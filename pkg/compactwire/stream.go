package compactwire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/rawbytedev/zosdatum/pkg/value"
)

// Writer appends frames to an io.Writer. Not safe for concurrent use.
type Writer struct {
	w      io.Writer
	enc    *value.Encoder
	data   DataFrame
	errf   ErrorFrame
	frames int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, enc: value.NewEncoder()}
}

// WriteRecord marshals rec into a data frame. A negative sourceOffset
// omits the offset.
func (w *Writer) WriteRecord(rec *value.Record, sourceOffset int64) error {
	payload, err := w.enc.Encode(rec)
	if err != nil {
		return err
	}
	var flags byte
	if sourceOffset >= 0 {
		flags |= FlagHasSourceOffset
	}
	frame, err := w.data.EncodeDataFrame(payload, flags, sourceOffset)
	if err != nil {
		return err
	}
	return w.write(frame)
}

// WriteError records a skipped record or a failed stream.
func (w *Writer) WriteError(code byte, msg string) error {
	frame, err := w.errf.EncodeErrorFrame(code, []byte(msg))
	if err != nil {
		return err
	}
	return w.write(frame)
}

func (w *Writer) write(frame []byte) error {
	if _, err := w.w.Write(frame); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames is the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Message is one frame read back from a stream.
type Message struct {
	Type         byte
	Record       *value.Record
	SourceOffset int64 // -1 when the frame carried none
	Code         byte
	Text         string
}

// Reader reads frames produced by Writer.
type Reader struct {
	r    io.Reader
	buf  []byte
	data DataFrame
	errf ErrorFrame
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, buf: make([]byte, 0, 512)}
}

// Next returns the next frame, io.EOF at a clean end of stream and
// io.ErrUnexpectedEOF when the stream stops inside a frame.
func (r *Reader) Next() (Message, error) {
	r.buf = r.buf[:headerLen]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		if errors.Is(err, io.EOF) {
			return Message{}, io.EOF
		}
		return Message{}, err
	}
	length := binary.LittleEndian.Uint32(r.buf[preambleLen:])
	if length < headerLen+crcLen || length > MaxFrameLen {
		return Message{}, fmt.Errorf("%w: frame length %d", ErrLength, length)
	}
	if cap(r.buf) < int(length) {
		grown := make([]byte, length)
		copy(grown, r.buf)
		r.buf = grown
	}
	r.buf = r.buf[:length]
	if _, err := io.ReadFull(r.r, r.buf[headerLen:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, err
	}

	switch r.buf[2] {
	case TypeData:
		payload, off, flags, err := r.data.DecodeDataFrame(r.buf)
		if err != nil {
			return Message{}, err
		}
		v, err := value.Unmarshal(payload)
		if err != nil {
			return Message{}, err
		}
		rec, ok := v.(*value.Record)
		if !ok {
			return Message{}, fmt.Errorf("%w: %T", ErrNotARecord, v)
		}
		if flags&FlagHasSourceOffset == 0 {
			off = -1
		}
		return Message{Type: TypeData, Record: rec, SourceOffset: off}, nil
	case TypeError:
		code, msg, err := r.errf.DecodeErrorFrame(r.buf)
		if err != nil {
			return Message{}, err
		}
		return Message{Type: TypeError, SourceOffset: -1, Code: code, Text: string(msg)}, nil
	default:
		if r.buf[0] != magic0 || r.buf[1] != magic1 {
			return Message{}, ErrBadMagic
		}
		return Message{}, fmt.Errorf("%w: %#x", ErrFrameType, r.buf[2])
	}
}
