package numeric

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DefaultCharset is the EBCDIC code page used when a layout names none.
const DefaultCharset = "IBM037"

var charsets = map[string]*charmap.Charmap{
	"ibm037":     charmap.CodePage037,
	"cp037":      charmap.CodePage037,
	"ibm1047":    charmap.CodePage1047,
	"cp1047":     charmap.CodePage1047,
	"ibm1140":    charmap.CodePage1140,
	"cp1140":     charmap.CodePage1140,
	"iso-8859-1": charmap.ISO8859_1,
	"latin1":     charmap.ISO8859_1,
}

// Charset resolves a code page name. An empty name selects DefaultCharset.
func Charset(name string) (*charmap.Charmap, error) {
	if name == "" {
		name = DefaultCharset
	}
	cm, ok := charsets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
	}
	return cm, nil
}

// Fill returns the host byte for a space under cm, the usual PIC X pad.
func Fill(cm *charmap.Charmap) byte {
	b, ok := cm.EncodeRune(' ')
	if !ok {
		return 0x40
	}
	return b
}

// DecodeText converts single-byte host text. Trailing fill bytes are
// removed only when trim is set.
func DecodeText(b []byte, cm *charmap.Charmap, fill byte, trim bool) string {
	if trim {
		end := len(b)
		for end > 0 && b[end-1] == fill {
			end--
		}
		b = b[:end]
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(cm.DecodeByte(c))
	}
	return sb.String()
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// DecodeNational converts PIC N text stored as UTF-16 big-endian.
// With trim set, trailing spaces are dropped.
func DecodeNational(b []byte, trim bool) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("%w: odd length %d", ErrInvalidNational, len(b))
	}
	out, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidNational, err)
	}
	s := string(out)
	if trim {
		s = strings.TrimRight(s, " ")
	}
	return s, nil
}
