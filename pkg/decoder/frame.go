package decoder

// Frame borrows one record's bytes from a buffer owned by someone else,
// typically the stream reader. It is valid until that buffer is reused.
type Frame struct {
	buf    []byte
	prefix int
	length int
}

// NewFrame views length payload bytes that follow prefix bytes of
// framing metadata at the start of buf.
func NewFrame(buf []byte, prefix, length int) Frame {
	return Frame{buf: buf, prefix: prefix, length: length}
}

// Prefix is the framing metadata, e.g. a record descriptor word.
func (f Frame) Prefix() []byte { return f.buf[:f.prefix] }

// Payload is the record itself.
func (f Frame) Payload() []byte { return f.buf[f.prefix : f.prefix+f.length] }

func (f Frame) Len() int { return f.length }
