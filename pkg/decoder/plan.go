package decoder

import (
	"fmt"
	"sync"

	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
)

// Plan is the per-layout work done once and shared by every decoder of
// the same tree and charset.
type Plan struct {
	MaxLen   int
	counters map[string]bool // names read by DEPENDING ON clauses
	fields   map[*layout.Primitive]numeric.Field
	choices  []*layout.Choice
}

type planKey struct {
	root    layout.Node
	charset string
}

// PlanCache shares plans between decoders built from the same layout.
// Its lifetime is the caller's; drop it to release every plan it holds.
type PlanCache struct {
	mu    sync.RWMutex
	plans map[planKey]*Plan
}

func NewPlanCache() *PlanCache {
	return &PlanCache{plans: make(map[planKey]*Plan)}
}

// Len reports the number of cached plans.
func (c *PlanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plans)
}

// getPlan compiles root once per charset. A nil cache compiles every time.
func (c *PlanCache) getPlan(root layout.Node, charset string) (*Plan, error) {
	if c == nil {
		return compile(root, charset)
	}
	key := planKey{root: root, charset: charset}
	c.mu.RLock()
	if plan, ok := c.plans[key]; ok {
		c.mu.RUnlock()
		return plan, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plans[key]; ok {
		return plan, nil
	}
	plan, err := compile(root, charset)
	if err != nil {
		return nil, err
	}
	c.plans[key] = plan
	return plan, nil
}

func compile(root layout.Node, charset string) (*Plan, error) {
	if err := layout.Validate(root); err != nil {
		return nil, err
	}
	cm, err := numeric.Charset(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", layout.ErrInvalidLayout, err)
	}
	plan := &Plan{
		MaxLen:   layout.MaxBytesLen(root),
		counters: make(map[string]bool),
		fields:   make(map[*layout.Primitive]numeric.Field),
	}
	err = layout.Walk(root, func(path string, n layout.Node) error {
		switch n := n.(type) {
		case *layout.Primitive:
			f, err := n.Field(cm)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", layout.ErrInvalidLayout, path, err)
			}
			plan.fields[n] = f
		case *layout.Array:
			if n.Variable() {
				plan.counters[n.DependingOn] = true
			}
		case *layout.Choice:
			if n.DependingOn != "" {
				plan.counters[n.DependingOn] = true
			}
			plan.choices = append(plan.choices, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}
