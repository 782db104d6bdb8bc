// Package value holds decoded records: ordered field maps, arrays and
// union branches over int64, decimal.Decimal, float32, float64, string and
// []byte scalars.
package value

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/shopspring/decimal"
)

// Record is a group value. Fields keep the order they were decoded in;
// absent optional fields and choices are simply not set.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// Array is an OCCURS value.
type Array []any

// Union is the decoded branch of a REDEFINES overlay.
type Union struct {
	Branch string
	Value  any
}

func NewRecord(capacity int) *Record {
	return &Record{fields: orderedmap.NewOrderedMapWithCapacity[string, any](capacity)}
}

func (r *Record) Set(name string, v any) { r.fields.Set(name, v) }

func (r *Record) Get(name string) (any, bool) { return r.fields.Get(name) }

func (r *Record) Has(name string) bool { return r.fields.Has(name) }

func (r *Record) Len() int { return r.fields.Len() }

// Names lists field names in order.
func (r *Record) Names() []string { return slices.Collect(r.fields.Keys()) }

// All iterates fields in order.
func (r *Record) All() iter.Seq2[string, any] { return r.fields.AllFromFront() }

// Lookup follows a dotted path through nested records and unions.
func (r *Record) Lookup(path ...string) (any, bool) {
	var cur any = r
	for _, name := range path {
		if u, ok := cur.(Union); ok {
			if u.Branch != name {
				return nil, false
			}
			cur = u.Value
			continue
		}
		rec, ok := cur.(*Record)
		if !ok {
			return nil, false
		}
		if cur, ok = rec.Get(name); !ok {
			return nil, false
		}
	}
	return cur, true
}

// MarshalJSON renders fields in decoded order. Decimals are emitted as
// JSON numbers without loss; unions as a single-key object.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (u Union) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, u); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case *Record:
		buf.WriteByte('{')
		first := true
		for name, f := range v.All() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeKey(buf, name); err != nil {
				return err
			}
			if err := writeJSON(buf, f); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Array:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Union:
		buf.WriteByte('{')
		if err := writeKey(buf, v.Branch); err != nil {
			return err
		}
		if err := writeJSON(buf, v.Value); err != nil {
			return err
		}
		buf.WriteByte('}')
	case decimal.Decimal:
		buf.WriteString(v.String())
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

func writeKey(buf *bytes.Buffer, name string) error {
	b, err := json.Marshal(name)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}

// DeepCopy returns v with no memory shared with the original, so the
// result survives reuse of the buffer it was decoded from.
func DeepCopy(v any) any {
	switch v := v.(type) {
	case *Record:
		out := NewRecord(v.Len())
		for name, f := range v.All() {
			out.Set(name, DeepCopy(f))
		}
		return out
	case Array:
		out := make(Array, len(v))
		for i, e := range v {
			out[i] = DeepCopy(e)
		}
		return out
	case Union:
		return Union{Branch: v.Branch, Value: DeepCopy(v.Value)}
	case []byte:
		return bytes.Clone(v)
	default:
		return v
	}
}

// Equal compares two values structurally. Decimals compare by value, so
// 2150 and 2150.00 are equal.
func Equal(a, b any) bool {
	switch a := a.(type) {
	case *Record:
		b, ok := b.(*Record)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for name, av := range a.All() {
			bv, ok := b.Get(name)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return slices.Equal(a.Names(), b.Names())
	case Array:
		b, ok := b.(Array)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Union:
		b, ok := b.(Union)
		return ok && a.Branch == b.Branch && Equal(a.Value, b.Value)
	case decimal.Decimal:
		b, ok := b.(decimal.Decimal)
		return ok && a.Equal(b)
	case []byte:
		b, ok := b.([]byte)
		return ok && bytes.Equal(a, b)
	default:
		return a == b
	}
}
