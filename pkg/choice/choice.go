// Package choice selects which alternative of a REDEFINES overlay applies
// to a record. Resolvers are strategies: a caller-supplied resolver always
// wins over the positional default.
package choice

import (
	"errors"
	"fmt"
	"maps"

	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
)

var (
	ErrUnknownAlternative = errors.New("unknown alternative")
	ErrMissingVariable    = errors.New("missing variable")
	ErrNoAlternative      = errors.New("no alternative matches")
)

// Variables is the read-only view of the values decoded so far.
type Variables interface {
	Get(name string) (any, bool)
	Int(name string) (int64, bool)
}

// Context collects the values of counters and discriminants as a record
// is decoded. One Context is reused across records; Reset clears it.
type Context struct {
	vars map[string]any
}

func NewContext() *Context {
	return &Context{vars: make(map[string]any)}
}

func (c *Context) Set(name string, v any) { c.vars[name] = v }

func (c *Context) Get(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Int returns name as an integer when it holds a whole number.
func (c *Context) Int(name string) (int64, bool) {
	v, ok := c.vars[name]
	if !ok {
		return 0, false
	}
	return numeric.AsInt64(v)
}

func (c *Context) Len() int { return len(c.vars) }

func (c *Context) Reset() { clear(c.vars) }

// Clone returns an independent copy, used when probing alternatives.
func (c *Context) Clone() *Context {
	return &Context{vars: maps.Clone(c.vars)}
}

// Restore overwrites c with the contents of from.
func (c *Context) Restore(from *Context) {
	clear(c.vars)
	maps.Copy(c.vars, from.vars)
}

// Request carries everything a resolver may inspect for one choice.
type Request struct {
	Choice *layout.Choice
	Path   string
	Vars   Variables
	Data   []byte // record payload
	Offset int    // where the overlay starts in Data
	// Probe trial-decodes an alternative at Offset without touching the
	// record being built. It returns nil when the alternative fits.
	Probe func(layout.Node) error
}

// Alternative looks up name on the request's choice. An empty name
// means no alternative applies.
func (r *Request) Alternative(name string) (layout.Node, error) {
	if name == "" {
		return nil, nil
	}
	if n, ok := r.Choice.Alternative(name); ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrUnknownAlternative, name, r.Path)
}

// Resolver picks at most one alternative. Returning a nil node with a nil
// error means the choice is absent from the record.
type Resolver interface {
	Resolve(req *Request) (layout.Node, error)
	RequiredVariables() []string
}

// Func adapts a closure. Vars lists the values it reads.
type Func struct {
	Vars []string
	Fn   func(req *Request) (layout.Node, error)
}

func (f *Func) Resolve(req *Request) (layout.Node, error) { return f.Fn(req) }
func (f *Func) RequiredVariables() []string                { return f.Vars }

// Selector is implemented by resolvers that delegate per choice.
type Selector interface {
	For(c *layout.Choice) Resolver
}

// For returns the resolver that decides c. Caller resolvers come first,
// then presence for optional fields, then the positional default.
func For(r Resolver, c *layout.Choice) Resolver {
	if s, ok := r.(Selector); ok {
		r = s.For(c)
	}
	if r != nil {
		return r
	}
	if c.Optional {
		return Presence{}
	}
	return Positional{}
}
