package zosdatum

import "bytes"

// Matcher recognizes the first SignatureLen bytes of a record.
type Matcher interface {
	SignatureLen() int
	Match(window []byte) bool
}

// Signature matches a fixed byte pattern.
type Signature []byte

func (s Signature) SignatureLen() int        { return len(s) }
func (s Signature) Match(window []byte) bool { return bytes.Equal(window, s) }

// MatchFunc matches with a caller predicate over a window of N bytes.
type MatchFunc struct {
	N  int
	Fn func(window []byte) bool
}

func (m MatchFunc) SignatureLen() int        { return m.N }
func (m MatchFunc) Match(window []byte) bool { return m.Fn(window) }
