// Package numeric decodes fixed-width mainframe fields: big-endian binary
// integers, packed and zoned decimals, EBCDIC and UTF-16 text, IEEE and
// hexadecimal floating point. Every function is pure and works on a byte
// slice already sized to the field.
package numeric

import (
	"errors"
	"fmt"
	"strings"
)

// Encoding tags how a primitive field is stored.
type Encoding uint8

const (
	Octets       Encoding = iota // raw bytes, no conversion
	Text                         // PIC X under a single-byte charset
	National                     // PIC N, UTF-16 big-endian
	Binary                       // COMP, COMP-4, BINARY
	NativeBinary                 // COMP-5
	Packed                       // COMP-3
	Zoned                        // DISPLAY numeric
	Float                        // IEEE754 single
	Double                       // IEEE754 double
	HexFloat                     // COMP-1, IBM hexadecimal single
	HexDouble                    // COMP-2, IBM hexadecimal double
)

var encodingNames = [...]string{
	Octets:       "octets",
	Text:         "text",
	National:     "national",
	Binary:       "binary",
	NativeBinary: "native",
	Packed:       "packed",
	Zoned:        "zoned",
	Float:        "float",
	Double:       "double",
	HexFloat:     "hfloat",
	HexDouble:    "hdouble",
}

// aliases accepted by ParseEncoding on top of the canonical names.
var encodingAliases = map[string]Encoding{
	"comp":    Binary,
	"comp-4":  Binary,
	"comp-5":  NativeBinary,
	"comp-3":  Packed,
	"display": Zoned,
	"comp-1":  HexFloat,
	"comp-2":  HexDouble,
	"alpha":   Text,
	"bytes":   Octets,
}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return fmt.Sprintf("encoding(%d)", uint8(e))
}

// ParseEncoding maps a layout type name to its Encoding.
func ParseEncoding(s string) (Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range encodingNames {
		if n == name {
			return Encoding(i), nil
		}
	}
	if e, ok := encodingAliases[name]; ok {
		return e, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// IsNumeric reports whether values of e may feed a count or a discriminant.
func (e Encoding) IsNumeric() bool {
	switch e {
	case Binary, NativeBinary, Packed, Zoned:
		return true
	}
	return false
}

// Decoding errors. Callers add the field path and offset.
var (
	ErrUnknownEncoding = errors.New("unknown encoding")
	ErrWidth           = errors.New("invalid field width")
	ErrInvalidPacked   = errors.New("invalid packed decimal")
	ErrInvalidZoned    = errors.New("invalid zoned decimal")
	ErrInvalidNational = errors.New("invalid national text")
	ErrOutOfRange      = errors.New("value out of range")
	ErrUnknownCharset  = errors.New("unknown charset")
)
