package layout

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rawbytedev/zosdatum/pkg/numeric"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Spec is the YAML form of a layout node.
//
//	name: customer
//	type: group
//	fields:
//	  - {name: custId, type: zoned, digits: 6}
//	  - {name: custName, type: text, length: 20, trim: true}
//	  - {name: balance, type: packed, digits: 7, scale: 2, signed: true}
//	  - name: orders
//	    type: packed
//	    digits: 15
//	    occurs: {min: 0, max: 5, dependingOn: orderCount}
type Spec struct {
	Name         string      `yaml:"name"`
	Type         string      `yaml:"type"`
	Length       int         `yaml:"length,omitempty"`
	Digits       int         `yaml:"digits,omitempty"`
	Scale        int         `yaml:"scale,omitempty"`
	Signed       bool        `yaml:"signed,omitempty"`
	Sign         string      `yaml:"sign,omitempty"`
	Trim         bool        `yaml:"trim,omitempty"`
	Fill         string      `yaml:"fill,omitempty"` // hex byte, e.g. "00"
	Charset      string      `yaml:"charset,omitempty"`
	Expect       any         `yaml:"expect,omitempty"`
	Fields       []Spec      `yaml:"fields,omitempty"`
	Alternatives []Spec      `yaml:"alternatives,omitempty"`
	DependingOn  string      `yaml:"dependingOn,omitempty"`
	Occurs       *OccursSpec `yaml:"occurs,omitempty"`
	Optional     *OptSpec    `yaml:"optional,omitempty"`
}

type OccursSpec struct {
	Min         int    `yaml:"min"`
	Max         int    `yaml:"max"`
	DependingOn string `yaml:"dependingOn,omitempty"`
}

type OptSpec struct {
	DependingOn string `yaml:"dependingOn"`
}

var signNames = map[string]numeric.Sign{
	"":                  numeric.SignTrailing,
	"trailing":          numeric.SignTrailing,
	"leading":           numeric.SignLeading,
	"trailing-separate": numeric.SignTrailingSeparate,
	"leading-separate":  numeric.SignLeadingSeparate,
}

// Load reads a YAML layout and validates it.
func Load(r io.Reader) (Node, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Spec
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	return s.Build()
}

// LoadFile reads a YAML layout from disk.
func LoadFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(data))
}

// Build converts s to a validated tree.
func (s *Spec) Build() (Node, error) {
	n, err := s.build("")
	if err != nil {
		return nil, err
	}
	if err := Validate(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Spec) build(parent string) (Node, error) {
	path := Join(parent, s.Name)
	var n Node
	switch t := strings.ToLower(s.Type); t {
	case "group", "":
		if len(s.Fields) == 0 {
			return nil, fmt.Errorf("%w: %s: group without fields", ErrInvalidLayout, path)
		}
		c := &Composite{Name: s.Name, Fields: make([]Node, 0, len(s.Fields))}
		for i := range s.Fields {
			f, err := s.Fields[i].build(path)
			if err != nil {
				return nil, err
			}
			c.Fields = append(c.Fields, f)
		}
		n = c
	case "choice":
		c := &Choice{Name: s.Name, DependingOn: s.DependingOn, Alternatives: make([]Node, 0, len(s.Alternatives))}
		for i := range s.Alternatives {
			alt, err := s.Alternatives[i].build(path)
			if err != nil {
				return nil, err
			}
			c.Alternatives = append(c.Alternatives, alt)
		}
		n = c
	default:
		p, err := s.primitive(path)
		if err != nil {
			return nil, err
		}
		n = p
	}
	if s.Occurs != nil {
		n = &Array{
			Name:        s.Name,
			Element:     n,
			MinOccurs:   s.Occurs.Min,
			MaxOccurs:   s.Occurs.Max,
			DependingOn: s.Occurs.DependingOn,
		}
		if s.Occurs.DependingOn == "" && s.Occurs.Min == 0 {
			n.(*Array).MinOccurs = s.Occurs.Max
		}
	}
	if s.Optional != nil {
		n = Optional(n, s.Optional.DependingOn)
	}
	return n, nil
}

func (s *Spec) primitive(path string) (*Primitive, error) {
	enc, err := numeric.ParseEncoding(s.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLayout, path, err)
	}
	sign, ok := signNames[strings.ToLower(s.Sign)]
	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown sign %q", ErrInvalidLayout, path, s.Sign)
	}
	p := &Primitive{
		Name:           s.Name,
		Encoding:       enc,
		Length:         s.Length,
		Digits:         s.Digits,
		FractionDigits: s.Scale,
		Signed:         s.Signed || sign != numeric.SignTrailing,
		Sign:           sign,
		Trim:           s.Trim,
		Charset:        s.Charset,
	}
	if p.Length == 0 {
		p.Length = deriveLength(enc, s.Digits, sign)
	}
	if s.Fill != "" {
		b, err := hex.DecodeString(s.Fill)
		if err != nil || len(b) != 1 {
			return nil, fmt.Errorf("%w: %s: fill %q is not one hex byte", ErrInvalidLayout, path, s.Fill)
		}
		p.Fill = b[0]
	}
	if s.Expect != nil {
		if p.Expect, err = expectValue(s.Expect); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLayout, path, err)
		}
	}
	return p, nil
}

func deriveLength(enc numeric.Encoding, digits int, sign numeric.Sign) int {
	switch enc {
	case numeric.Binary, numeric.NativeBinary:
		return numeric.BinaryWidth(digits)
	case numeric.Packed:
		return numeric.PackedWidth(digits)
	case numeric.Zoned:
		return numeric.ZonedWidth(digits, sign)
	default:
		return numeric.FixedWidth(enc)
	}
}

func expectValue(v any) (any, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported expect value %T", v)
	}
}
