package layout

import (
	"fmt"
	"strings"

	"github.com/rawbytedev/zosdatum/pkg/numeric"
)

// counter is a primitive a DEPENDING ON clause may read. scope is the
// path of the innermost array or alternative holding it, empty when the
// field is decoded on every path through the record.
type counter struct {
	p     *Primitive
	scope string
}

// within reports whether path is scope or lies below it.
func within(path, scope string) bool {
	return scope == "" || path == scope || strings.HasPrefix(path, scope+".")
}

// Validate checks a tree before any record is decoded. Every DEPENDING ON
// reference must name a numeric primitive that precedes it in traversal
// order and is decoded whenever the reference is: a field inside an array
// element or a choice alternative is only visible within it.
func Validate(root Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidLayout)
	}
	counters := map[string][]counter{}
	var scopes []string
	scopeOf := func(path string) string {
		best := ""
		for _, s := range scopes {
			if within(path, s) && len(s) > len(best) {
				best = s
			}
		}
		return best
	}
	return Walk(root, func(path string, n Node) error {
		if n.NodeName() == "" {
			return fmt.Errorf("%w: %s: unnamed node", ErrInvalidLayout, path)
		}
		switch n := n.(type) {
		case *Primitive:
			if !numeric.ValidWidth(n.Encoding, n.Length) {
				return fmt.Errorf("%w: %s: %d bytes is not a valid %v width", ErrInvalidLayout, path, n.Length, n.Encoding)
			}
			if n.FractionDigits < 0 {
				return fmt.Errorf("%w: %s: negative scale", ErrInvalidLayout, path)
			}
			if most := numeric.MaxDigits(n.Encoding, n.Length, n.Sign); n.Digits < 0 || (most > 0 && n.Digits > most) {
				return fmt.Errorf("%w: %s: %d digits do not fit %d bytes of %v", ErrInvalidLayout, path, n.Digits, n.Length, n.Encoding)
			}
			if n.Charset != "" {
				if _, err := numeric.Charset(n.Charset); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrInvalidLayout, path, err)
				}
			}
			counters[n.Name] = append(counters[n.Name], counter{p: n, scope: scopeOf(path)})
		case *Composite:
			if len(n.Fields) == 0 {
				return fmt.Errorf("%w: %s: empty group", ErrInvalidLayout, path)
			}
		case *Array:
			if n.Element == nil {
				return fmt.Errorf("%w: %s: array without element", ErrInvalidLayout, path)
			}
			if n.MaxOccurs <= 0 || n.MinOccurs < 0 || n.MinOccurs > n.MaxOccurs {
				return fmt.Errorf("%w: %s: occurs %d to %d", ErrInvalidLayout, path, n.MinOccurs, n.MaxOccurs)
			}
			if n.Variable() {
				if err := checkCounter(counters, path, n.DependingOn, true); err != nil {
					return err
				}
			}
			scopes = append(scopes, path)
		case *Choice:
			if len(n.Alternatives) == 0 {
				return fmt.Errorf("%w: %s: choice without alternatives", ErrInvalidLayout, path)
			}
			if n.Optional {
				if len(n.Alternatives) != 1 {
					return fmt.Errorf("%w: %s: optional with %d alternatives", ErrInvalidLayout, path, len(n.Alternatives))
				}
				if n.DependingOn == "" {
					return fmt.Errorf("%w: %s: optional without counter", ErrInvalidLayout, path)
				}
			}
			if n.DependingOn != "" {
				if err := checkCounter(counters, path, n.DependingOn, n.Optional); err != nil {
					return err
				}
			}
			seen := make(map[string]bool, len(n.Alternatives))
			for _, alt := range n.Alternatives {
				if seen[alt.NodeName()] {
					return fmt.Errorf("%w: %s: duplicate alternative %q", ErrInvalidLayout, path, alt.NodeName())
				}
				seen[alt.NodeName()] = true
				if !n.Optional {
					scopes = append(scopes, Join(path, alt.NodeName()))
				}
			}
			if n.Optional {
				scopes = append(scopes, path)
			}
		default:
			return fmt.Errorf("%w: %s: unknown node %T", ErrInvalidLayout, path, n)
		}
		return nil
	})
}

func checkCounter(counters map[string][]counter, path, name string, numericOnly bool) error {
	var p *Primitive
	for _, c := range counters[name] {
		if within(path, c.scope) {
			p = c.p
		}
	}
	if p == nil {
		return fmt.Errorf("%w: %s: depends on %q which is not always decoded before it", ErrInvalidLayout, path, name)
	}
	if numericOnly && !p.Encoding.IsNumeric() {
		return fmt.Errorf("%w: %s: counter %q is %v, not numeric", ErrInvalidLayout, path, name, p.Encoding)
	}
	return nil
}
