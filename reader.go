// Package zosdatum reads mainframe record streams: it frames records out
// of a byte source and decodes each one against a COBOL layout.
package zosdatum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/rawbytedev/zosdatum/pkg/choice"
	"github.com/rawbytedev/zosdatum/pkg/decoder"
	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/value"
)

// MaxCobolRecordLen is the largest 01 level COBOL for z/OS accepts.
const MaxCobolRecordLen = 134217727

type Options struct {
	Framer       Framer          // FixedFramer{} when nil
	Resolver     choice.Resolver // nil selects the built-in strategies
	Charset      string
	MaxRecordLen int // buffer ceiling, MaxCobolRecordLen when zero
	Logger       *slog.Logger
	Plans        *decoder.PlanCache // shared between readers of one layout
}

// Reader pulls records one at a time. It owns a single buffer that is
// reused for every record; records it returns are deep copies. A Reader
// is single-pass and not safe for concurrent use.
type Reader struct {
	src    Source
	in     input
	framer Framer
	dec    *decoder.Decoder
	log    *slog.Logger

	buf     []byte
	carried int // bytes at buf[0:] read ahead for the next record

	size           int64
	bytesRead      int64
	bytesProcessed int64
	offset         int64

	err    error // sticky stream error
	lost   bool  // last record had no known length and failed to decode
	closed bool
}

func NewReader(src Source, root layout.Node, opts Options) (*Reader, error) {
	if root == nil {
		return nil, ErrNilLayout
	}
	if src == nil || src.Size() <= 0 {
		return nil, ErrEmptySource
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	dec, err := decoder.New(root, decoder.Options{
		Resolver: opts.Resolver,
		Charset:  opts.Charset,
		Logger:   log,
		Plans:    opts.Plans,
	})
	if err != nil {
		return nil, err
	}
	framer := opts.Framer
	if framer == nil {
		framer = FixedFramer{}
	}
	ceiling := opts.MaxRecordLen
	if ceiling <= 0 || ceiling > MaxCobolRecordLen {
		ceiling = MaxCobolRecordLen
	}
	recordLen := dec.MaxLen()
	if recordLen > ceiling {
		log.Warn("record maximum length exceeds the buffer ceiling, truncating",
			"layout", root.NodeName(), "maxLen", recordLen, "ceiling", ceiling)
		recordLen = ceiling
	}
	if f, ok := framer.(FixedFramer); ok && f.RecordLen > recordLen {
		return nil, fmt.Errorf("%w: fixed length %d > %d", ErrRecordTooLong, f.RecordLen, recordLen)
	}
	return &Reader{
		src:    src,
		in:     input{r: src},
		framer: framer,
		dec:    dec,
		log:    log,
		buf:    make([]byte, recordLen+framer.PrefixLen()),
		size:   src.Size(),
	}, nil
}

// HasNext reports whether unprocessed bytes remain. It does no I/O.
func (r *Reader) HasNext() bool {
	return r.size-r.bytesProcessed > 0
}

// Next frames and decodes one record. It returns io.EOF once every byte
// has been processed. A *decoder.DecodeError leaves the reader usable
// when the framer knew the record length; otherwise the boundary is lost
// and only SeekRecordStart can resume.
func (r *Reader) Next() (*value.Record, error) {
	switch {
	case r.closed:
		return nil, ErrClosed
	case r.err != nil:
		return nil, r.err
	case r.lost:
		return nil, ErrLostSync
	case !r.HasNext():
		return nil, io.EOF
	}

	st, err := r.framer.ReadRecord(r.in, r.buf, r.carried)
	r.bytesRead += int64(st.BytesRead)
	if err != nil {
		r.err = fmt.Errorf("zosdatum: reading record at offset %d: %w", r.bytesProcessed, err)
		return nil, r.err
	}

	prefix := r.framer.PrefixLen()
	length := st.RecordLen
	if length == UnknownLength {
		// only the bytes actually read, never stale buffer content
		length = st.Available - prefix
	}
	r.offset = r.bytesProcessed
	res, err := r.dec.Decode(decoder.NewFrame(r.buf, prefix, length))

	used := prefix + st.RecordLen
	if st.RecordLen == UnknownLength {
		if err != nil {
			r.carried = st.Available
			r.lost = true
			return nil, err
		}
		used = prefix + res.Consumed
	}
	if used == 0 {
		// nothing decoded, nothing to advance past
		r.carried = st.Available
		r.lost = true
		return nil, fmt.Errorf("%w: record at offset %d consumed no bytes", ErrLostSync, r.offset)
	}
	r.bytesProcessed += int64(used)
	r.carry(used, st.Available)
	if err != nil {
		return nil, err
	}

	rec := value.DeepCopy(res.Record).(*value.Record)
	if r.log.Enabled(context.Background(), slog.LevelDebug) {
		r.log.Debug("record decoded", "offset", r.offset, "consumed", used, "record", rec)
	}
	return rec, nil
}

// carry moves the bytes read past the record to the front of the buffer.
func (r *Reader) carry(used, available int) {
	if used >= available {
		r.carried = 0
		return
	}
	r.carried = copy(r.buf, r.buf[used:available])
}

// All iterates the remaining records. Decode errors on records of known
// length are yielded and iteration continues; any other error ends it.
func (r *Reader) All() iter.Seq2[*value.Record, error] {
	return func(yield func(*value.Record, error) bool) {
		for r.HasNext() {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) {
				return
			}
			if err != nil && (r.err != nil || r.lost || r.closed) {
				return
			}
		}
	}
}

// SeekRecordStart skips bytes until m matches the start of a window of
// m.SignatureLen() bytes. Skipped bytes count as processed; the matched
// window becomes the start of the next record. After a lost boundary the
// search begins one byte past the failed record.
func (r *Reader) SeekRecordStart(m Matcher) error {
	switch {
	case r.closed:
		return ErrClosed
	case r.err != nil:
		return r.err
	}
	n := m.SignatureLen()
	if n <= 0 || n > len(r.buf) {
		return fmt.Errorf("%w: %d bytes, buffer holds %d", ErrSignatureTooLong, n, len(r.buf))
	}

	// buf[start:end] holds bytes read but not yet skipped
	start, end := 0, r.carried
	if r.lost && end > 0 {
		start = 1
	}
	r.lost = false
	for {
		if end-start < n {
			end = copy(r.buf, r.buf[start:end])
			start = 0
			read, err := r.in.ReadFull(r.buf[end:n])
			r.bytesRead += int64(read)
			if err != nil {
				r.carried = 0
				r.err = fmt.Errorf("%w: %w", ErrNoRecordStart, err)
				return r.err
			}
			end = n
		}
		if m.Match(r.buf[start : start+n]) {
			break
		}
		start++
	}
	r.carried = copy(r.buf, r.buf[start:end])
	r.bytesProcessed = r.bytesRead - int64(r.carried)
	return nil
}

// BytesRead counts bytes pulled from the source.
func (r *Reader) BytesRead() int64 { return r.bytesRead }

// BytesProcessed counts bytes attributed to records or skipped. It never
// exceeds BytesRead; the difference is read ahead.
func (r *Reader) BytesProcessed() int64 { return r.bytesProcessed }

// Offset is the stream offset of the last record returned by Next.
func (r *Reader) Offset() int64 { return r.offset }

// Close releases the source. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
