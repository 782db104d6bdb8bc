package decoder

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrShortFrame         = errors.New("record shorter than layout")
	ErrUnresolvedCount    = errors.New("unresolved array count")
	ErrCountOutOfRange    = errors.New("array count out of range")
	ErrUnexpectedValue    = errors.New("unexpected field value")
	ErrForeignAlternative = errors.New("resolver returned a node outside the choice")
)

// maxRaw bounds the bytes kept on a DecodeError.
const maxRaw = 64

// DecodeError reports where in a record decoding failed.
type DecodeError struct {
	Path   string
	Offset int    // from the start of the payload
	Raw    []byte // bytes of the failing field, copied
	Err    error
}

func (e *DecodeError) Error() string {
	if len(e.Raw) == 0 {
		return fmt.Sprintf("decode %s at offset %d: %v", e.Path, e.Offset, e.Err)
	}
	return fmt.Sprintf("decode %s at offset %d [%s]: %v", e.Path, e.Offset, hex.EncodeToString(e.Raw), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func newError(path string, offset int, raw []byte, err error) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Path == path {
		return err
	}
	if len(raw) > maxRaw {
		raw = raw[:maxRaw]
	}
	return &DecodeError{Path: path, Offset: offset, Raw: append([]byte(nil), raw...), Err: err}
}
