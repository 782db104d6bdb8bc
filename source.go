package zosdatum

import (
	"io"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
)

// Source is a byte stream with a known number of remaining bytes.
type Source interface {
	io.Reader
	Size() int64
}

type sizedSource struct {
	r    io.Reader
	size int64
}

// NewSource wraps a sequential stream whose total length is known upfront.
func NewSource(r io.Reader, size int64) Source {
	return &sizedSource{r: r, size: size}
}

func (s *sizedSource) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *sizedSource) Size() int64                { return s.size }

func (s *sizedSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type streamSource struct {
	ks   *kaitai.Stream
	rs   io.ReadSeeker
	size int64
}

// NewSeekableSource sizes rs from its current position to its end.
func NewSeekableSource(rs io.ReadSeeker) (Source, error) {
	ks := kaitai.NewStream(rs)
	size, err := ks.Size()
	if err != nil {
		return nil, err
	}
	pos, err := ks.Pos()
	if err != nil {
		return nil, err
	}
	return &streamSource{ks: ks, rs: rs, size: size - pos}, nil
}

func (s *streamSource) Read(p []byte) (int, error) { return s.ks.Read(p) }
func (s *streamSource) Size() int64                { return s.size }

func (s *streamSource) Close() error {
	if c, ok := s.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// input adapts a Source to the two read primitives framers need.
type input struct {
	r io.Reader
}

func (in input) ReadFull(p []byte) (int, error) {
	return io.ReadFull(in.r, p)
}

func (in input) ReadUpTo(p []byte) (int, error) {
	n, err := io.ReadFull(in.r, p)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return n, err
}
