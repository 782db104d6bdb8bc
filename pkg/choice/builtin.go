package choice

import (
	"fmt"

	"github.com/rawbytedev/zosdatum/pkg/layout"
)

// Positional picks the first alternative that decodes cleanly at the
// overlay offset. Without a probe it falls back to the first alternative.
type Positional struct{}

func (Positional) Resolve(req *Request) (layout.Node, error) {
	alts := req.Choice.Alternatives
	if req.Probe == nil {
		return alts[0], nil
	}
	var last error
	for _, alt := range alts {
		if last = req.Probe(alt); last == nil {
			return alt, nil
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrNoAlternative, req.Path, last)
}

func (Positional) RequiredVariables() []string { return nil }

// Presence decides optional fields: the single alternative is present
// when the choice's counter is non-zero.
type Presence struct{}

func (Presence) Resolve(req *Request) (layout.Node, error) {
	name := req.Choice.DependingOn
	v, ok := req.Vars.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q for %s", ErrMissingVariable, name, req.Path)
	}
	n, ok := req.Vars.Int(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %v", ErrMissingVariable, name, v)
	}
	if n == 0 {
		return nil, nil
	}
	return req.Choice.Alternatives[0], nil
}

func (Presence) RequiredVariables() []string { return nil }

// Registry routes each choice to the resolver registered under its name.
// Choices without an entry use Default, or the built-in strategies when
// Default is nil.
type Registry struct {
	Default   Resolver
	resolvers map[string]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register binds r to the choice called name and returns the registry.
func (g *Registry) Register(name string, r Resolver) *Registry {
	g.resolvers[name] = r
	return g
}

func (g *Registry) For(c *layout.Choice) Resolver {
	if r, ok := g.resolvers[c.Name]; ok {
		return r
	}
	if c.Optional {
		return nil
	}
	return g.Default
}

func (g *Registry) Resolve(req *Request) (layout.Node, error) {
	return For(g, req.Choice).Resolve(req)
}

// RequiredVariables is the union over every registered resolver.
func (g *Registry) RequiredVariables() []string {
	var out []string
	seen := map[string]bool{}
	add := func(r Resolver) {
		if r == nil {
			return
		}
		for _, v := range r.RequiredVariables() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	for _, r := range g.resolvers {
		add(r)
	}
	add(g.Default)
	return out
}
