// Package decoder walks a layout tree against one record's bytes and
// builds the structured value, reporting exactly how many bytes the path
// it took consumed.
package decoder

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rawbytedev/zosdatum/pkg/choice"
	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
	"github.com/rawbytedev/zosdatum/pkg/value"
	"github.com/shopspring/decimal"
)

type Options struct {
	Resolver choice.Resolver // nil selects the built-in strategies
	Charset  string          // default code page, IBM037 when empty
	Logger   *slog.Logger
	Plans    *PlanCache // nil compiles a private plan
}

// Result is one decoded record. Consumed is authoritative for stream
// accounting and may be less than the frame length.
type Result struct {
	Record   *value.Record
	Consumed int
}

// Decoder is bound to one layout. It reuses its variable context between
// records and must not be shared between goroutines; the layout and plan
// it reads are shared freely.
type Decoder struct {
	root      layout.Node
	plan      *Plan
	log       *slog.Logger
	ctx       *choice.Context
	needed    map[string]bool
	resolvers map[*layout.Choice]choice.Resolver
}

func New(root layout.Node, opts Options) (*Decoder, error) {
	plan, err := opts.Plans.getPlan(root, opts.Charset)
	if err != nil {
		return nil, err
	}
	d := &Decoder{
		root:      root,
		plan:      plan,
		log:       opts.Logger,
		ctx:       choice.NewContext(),
		needed:    make(map[string]bool, len(plan.counters)),
		resolvers: make(map[*layout.Choice]choice.Resolver, len(plan.choices)),
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	for name := range plan.counters {
		d.needed[name] = true
	}
	for _, c := range plan.choices {
		r := choice.For(opts.Resolver, c)
		d.resolvers[c] = r
		for _, v := range r.RequiredVariables() {
			d.needed[v] = true
		}
	}
	return d, nil
}

// MaxLen is the longest record the layout can describe.
func (d *Decoder) MaxLen() int { return d.plan.MaxLen }

func (d *Decoder) Root() layout.Node { return d.root }

// Decode converts the frame's payload. Octet fields in the result alias
// the frame; use value.DeepCopy to keep them past the frame's lifetime.
func (d *Decoder) Decode(f Frame) (Result, error) {
	d.ctx.Reset()
	w := walker{d: d, data: f.Payload()}
	v, _, err := w.node(d.root, d.root.NodeName())
	if err != nil {
		return Result{Consumed: w.pos}, err
	}
	rec, ok := v.(*value.Record)
	if !ok {
		rec = value.NewRecord(1)
		rec.Set(d.root.NodeName(), v)
	}
	return Result{Record: rec, Consumed: w.pos}, nil
}

// DecodeBytes decodes b as a frame without prefix.
func (d *Decoder) DecodeBytes(b []byte) (Result, error) {
	return d.Decode(NewFrame(b, 0, len(b)))
}

// walker holds the cursor for one decode pass.
type walker struct {
	d    *Decoder
	data []byte
	pos  int
}

// node decodes n at the cursor. present is false for a choice that
// resolved to no alternative.
func (w *walker) node(n layout.Node, path string) (v any, present bool, err error) {
	switch n := n.(type) {
	case *layout.Primitive:
		v, err = w.primitive(n, path)
		return v, err == nil, err
	case *layout.Composite:
		rec := value.NewRecord(len(n.Fields))
		for _, f := range n.Fields {
			fv, ok, err := w.node(f, layout.Join(path, f.NodeName()))
			if err != nil {
				return nil, false, err
			}
			if ok {
				rec.Set(f.NodeName(), fv)
			}
		}
		return rec, true, nil
	case *layout.Array:
		v, err = w.array(n, path)
		return v, err == nil, err
	case *layout.Choice:
		return w.choice(n, path)
	default:
		return nil, false, newError(path, w.pos, nil, fmt.Errorf("%w: node %T", layout.ErrInvalidLayout, n))
	}
}

func (w *walker) primitive(p *layout.Primitive, path string) (any, error) {
	end := w.pos + p.Length
	if end > len(w.data) {
		return nil, newError(path, w.pos, w.data[w.pos:], fmt.Errorf("%w: need %d bytes, have %d", ErrShortFrame, p.Length, len(w.data)-w.pos))
	}
	raw := w.data[w.pos:end]
	f := w.d.plan.fields[p]
	v, err := f.Decode(raw)
	if err != nil {
		return nil, newError(path, w.pos, raw, err)
	}
	if p.Expect != nil && !expectMatches(p.Expect, v) {
		return nil, newError(path, w.pos, raw, fmt.Errorf("%w: got %v, want %v", ErrUnexpectedValue, v, p.Expect))
	}
	if w.d.needed[p.Name] {
		w.d.ctx.Set(p.Name, v)
	}
	w.pos = end
	return v, nil
}

func (w *walker) array(a *layout.Array, path string) (value.Array, error) {
	count := a.MaxOccurs
	if a.Variable() {
		raw, ok := w.d.ctx.Get(a.DependingOn)
		if !ok {
			return nil, newError(path, w.pos, nil, fmt.Errorf("%w: %q not decoded", ErrUnresolvedCount, a.DependingOn))
		}
		n, ok := numeric.AsInt64(raw)
		if !ok {
			return nil, newError(path, w.pos, nil, fmt.Errorf("%w: %q holds %v", ErrUnresolvedCount, a.DependingOn, raw))
		}
		if n < int64(a.MinOccurs) || n > int64(a.MaxOccurs) {
			return nil, newError(path, w.pos, nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrCountOutOfRange, n, a.MinOccurs, a.MaxOccurs))
		}
		count = int(n)
		w.d.log.Debug("variable array", "path", path, "count", count)
	}
	out := make(value.Array, 0, count)
	for i := range count {
		v, ok, err := w.node(a.Element, path+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}
		if !ok {
			v = nil
		}
		out = append(out, v)
	}
	return out, nil
}

func (w *walker) choice(c *layout.Choice, path string) (any, bool, error) {
	r := w.d.resolvers[c]
	for _, name := range r.RequiredVariables() {
		if _, ok := w.d.ctx.Get(name); !ok {
			return nil, false, newError(path, w.pos, nil, fmt.Errorf("%w: %q", choice.ErrMissingVariable, name))
		}
	}
	req := &choice.Request{
		Choice: c,
		Path:   path,
		Vars:   w.d.ctx,
		Data:   w.data,
		Offset: w.pos,
		Probe:  func(alt layout.Node) error { return w.probe(alt, path) },
	}
	alt, err := r.Resolve(req)
	if err != nil {
		return nil, false, newError(path, w.pos, nil, err)
	}
	if alt == nil {
		w.d.log.Debug("choice absent", "path", path)
		return nil, false, nil
	}
	if !contains(c.Alternatives, alt) {
		return nil, false, newError(path, w.pos, nil, fmt.Errorf("%w: %q", ErrForeignAlternative, alt.NodeName()))
	}
	w.d.log.Debug("choice resolved", "path", path, "alternative", alt.NodeName())

	if c.Optional {
		return w.node(alt, path)
	}
	v, ok, err := w.node(alt, layout.Join(path, alt.NodeName()))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		v = nil
	}
	return value.Union{Branch: alt.NodeName(), Value: v}, true, nil
}

// probe trial-decodes alt at the cursor and rolls back the cursor and
// the variable context.
func (w *walker) probe(alt layout.Node, path string) error {
	saved := w.d.ctx.Clone()
	pos := w.pos
	_, _, err := w.node(alt, layout.Join(path, alt.NodeName()))
	w.pos = pos
	w.d.ctx.Restore(saved)
	return err
}

func contains(alts []layout.Node, n layout.Node) bool {
	for _, a := range alts {
		if a == n {
			return true
		}
	}
	return false
}

func expectMatches(want, got any) bool {
	switch w := want.(type) {
	case int64:
		n, ok := numeric.AsInt64(got)
		return ok && n == w
	case decimal.Decimal:
		switch g := got.(type) {
		case decimal.Decimal:
			return g.Equal(w)
		case int64:
			return decimal.NewFromInt(g).Equal(w)
		}
		return false
	default:
		return value.Equal(want, got)
	}
}
