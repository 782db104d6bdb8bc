// Package layout describes COBOL record layouts as an immutable tree of
// primitives, groups, arrays and choices. Trees are built once and shared
// read-only by any number of decoders.
package layout

import (
	"errors"

	"github.com/rawbytedev/zosdatum/pkg/numeric"
	"golang.org/x/text/encoding/charmap"
)

var ErrInvalidLayout = errors.New("invalid layout")

// Node is one of *Primitive, *Composite, *Array or *Choice.
type Node interface {
	NodeName() string
	node()
}

// Primitive is an elementary item stored in Length bytes.
type Primitive struct {
	Name           string
	Encoding       numeric.Encoding
	Length         int
	Digits         int // 0 derives the digit count from Length
	FractionDigits int
	Signed         bool
	Sign           numeric.Sign
	Trim           bool
	Fill           byte   // 0 selects the charset's space
	Charset        string // empty inherits the decoder default
	Expect         any    // int64, string or decimal.Decimal; nil accepts anything
}

// Composite is a group whose fields are laid out back to back.
type Composite struct {
	Name   string
	Fields []Node
}

// Array repeats Element. With DependingOn set the count comes from that
// previously decoded field and must lie in [MinOccurs, MaxOccurs];
// otherwise the array always holds MaxOccurs elements.
type Array struct {
	Name        string
	Element     Node
	MinOccurs   int
	MaxOccurs   int
	DependingOn string
}

// Choice overlays its alternatives on the same storage. At most one is
// decoded per record. Optional marks a single-alternative presence choice
// controlled by the DependingOn counter.
type Choice struct {
	Name         string
	Alternatives []Node
	DependingOn  string
	Optional     bool
}

func (p *Primitive) NodeName() string { return p.Name }
func (c *Composite) NodeName() string { return c.Name }
func (a *Array) NodeName() string     { return a.Name }
func (c *Choice) NodeName() string    { return c.Name }

func (*Primitive) node() {}
func (*Composite) node() {}
func (*Array) node()     {}
func (*Choice) node()    {}

// Optional wraps n so that it is decoded only when the counter named
// dependingOn holds a non-zero value.
func Optional(n Node, dependingOn string) *Choice {
	return &Choice{
		Name:         n.NodeName(),
		Alternatives: []Node{n},
		DependingOn:  dependingOn,
		Optional:     true,
	}
}

// Alternative looks up an alternative by name.
func (c *Choice) Alternative(name string) (Node, bool) {
	for _, alt := range c.Alternatives {
		if alt.NodeName() == name {
			return alt, true
		}
	}
	return nil, false
}

// Variable reports whether the array count is read from the record.
func (a *Array) Variable() bool { return a.DependingOn != "" }

// Field builds the codec description of p. defaultCharset applies when p
// names no charset of its own.
func (p *Primitive) Field(defaultCharset *charmap.Charmap) (numeric.Field, error) {
	cm := defaultCharset
	if p.Charset != "" {
		var err error
		if cm, err = numeric.Charset(p.Charset); err != nil {
			return numeric.Field{}, err
		}
	}
	if cm == nil {
		cm = charmap.CodePage037
	}
	fill := p.Fill
	if fill == 0 {
		fill = numeric.Fill(cm)
	}
	return numeric.Field{
		Encoding:       p.Encoding,
		Digits:         p.Digits,
		FractionDigits: p.FractionDigits,
		Signed:         p.Signed,
		Sign:           p.Sign,
		Charset:        cm,
		Fill:           fill,
		Trim:           p.Trim,
	}, nil
}

// MaxBytesLen is the largest number of bytes n can occupy.
func MaxBytesLen(n Node) int {
	switch n := n.(type) {
	case *Primitive:
		return n.Length
	case *Composite:
		total := 0
		for _, f := range n.Fields {
			total += MaxBytesLen(f)
		}
		return total
	case *Array:
		return MaxBytesLen(n.Element) * n.MaxOccurs
	case *Choice:
		longest := 0
		for _, alt := range n.Alternatives {
			longest = max(longest, MaxBytesLen(alt))
		}
		return longest
	default:
		return 0
	}
}

// Walk visits n and its descendants depth first in declaration order,
// alternatives included. path is the dotted name of each node; array
// elements and optional contents share the path of their wrapper.
func Walk(n Node, fn func(path string, n Node) error) error {
	return walkAt(n.NodeName(), n, fn)
}

func walkAt(path string, n Node, fn func(string, Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	switch n := n.(type) {
	case *Composite:
		for _, f := range n.Fields {
			if err := walkAt(Join(path, f.NodeName()), f, fn); err != nil {
				return err
			}
		}
	case *Array:
		return walkAt(path, n.Element, fn)
	case *Choice:
		if n.Optional && len(n.Alternatives) == 1 {
			return walkAt(path, n.Alternatives[0], fn)
		}
		for _, alt := range n.Alternatives {
			if err := walkAt(Join(path, alt.NodeName()), alt, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Join appends a child name to a dotted path.
func Join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
