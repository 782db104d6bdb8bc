package choice

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
	"github.com/shopspring/decimal"
)

// Expr resolves a choice with a CEL expression over previously decoded
// values. The result may be an alternative name (empty for none), an
// alternative index (negative for none) or a bool selecting the first
// alternative.
//
//	comSelect == 1 ? "comDetail2" : "comDetail1"
type Expr struct {
	source string
	vars   []string
	prg    cel.Program
}

// NewExpr compiles source. vars names every value the expression reads;
// dashes in COBOL names become underscores inside the expression.
func NewExpr(source string, vars ...string) (*Expr, error) {
	opts := make([]cel.EnvOption, 0, len(vars)+1)
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	for _, v := range vars {
		opts = append(opts, cel.Variable(celName(v), cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("choice expression %q: %w", source, err)
	}
	ast, iss := env.Compile(source)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("choice expression %q: %w", source, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("choice expression %q: %w", source, err)
	}
	return &Expr{source: source, vars: vars, prg: prg}, nil
}

func (e *Expr) String() string { return e.source }

func (e *Expr) RequiredVariables() []string { return e.vars }

func (e *Expr) Resolve(req *Request) (layout.Node, error) {
	vars := make(map[string]any, len(e.vars))
	for _, name := range e.vars {
		v, ok := req.Vars.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s", ErrMissingVariable, name, req.Path)
		}
		vars[celName(name)] = celValue(v)
	}
	out, _, err := e.prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("choice expression %q at %s: %w", e.source, req.Path, err)
	}
	switch v := out.Value().(type) {
	case string:
		return req.Alternative(v)
	case int64:
		alts := req.Choice.Alternatives
		if v < 0 {
			return nil, nil
		}
		if v >= int64(len(alts)) {
			return nil, fmt.Errorf("%w: index %d in %s", ErrUnknownAlternative, v, req.Path)
		}
		return alts[v], nil
	case bool:
		if !v {
			return nil, nil
		}
		return req.Choice.Alternatives[0], nil
	default:
		return nil, fmt.Errorf("choice expression %q returned %T", e.source, v)
	}
}

func celName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// celValue maps decoded scalars onto CEL's native types.
func celValue(v any) any {
	switch v := v.(type) {
	case decimal.Decimal:
		if n, ok := numeric.AsInt64(v); ok {
			return n
		}
		return v.InexactFloat64()
	case float32:
		return float64(v)
	default:
		return v
	}
}
