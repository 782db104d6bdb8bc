package choice

import (
	"errors"
	"testing"

	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	detail1 = &layout.Composite{Name: "comDetail1", Fields: []layout.Node{
		&layout.Primitive{Name: "comName", Encoding: numeric.Text, Length: 10},
	}}
	detail2 = &layout.Composite{Name: "comDetail2", Fields: []layout.Node{
		&layout.Primitive{Name: "comAmount", Encoding: numeric.Packed, Length: 4, FractionDigits: 2},
	}}
	detail = &layout.Choice{Name: "comDetail", Alternatives: []layout.Node{detail1, detail2}}
)

func request(vars map[string]any) *Request {
	ctx := NewContext()
	for k, v := range vars {
		ctx.Set(k, v)
	}
	return &Request{Choice: detail, Path: "rdef01.comDetail", Vars: ctx}
}

func TestContext(t *testing.T) {
	ctx := NewContext()
	ctx.Set("count", int64(3))
	ctx.Set("amount", decimal.New(250, -2))

	n, ok := ctx.Int("count")
	require.True(t, ok)
	assert.Equal(t, int64(3), n)

	_, ok = ctx.Int("amount")
	assert.False(t, ok)

	clone := ctx.Clone()
	ctx.Set("count", int64(9))
	n, _ = clone.Int("count")
	assert.Equal(t, int64(3), n)

	ctx.Restore(clone)
	n, _ = ctx.Int("count")
	assert.Equal(t, int64(3), n)

	ctx.Reset()
	assert.Zero(t, ctx.Len())
	_, ok = ctx.Get("count")
	assert.False(t, ok)
}

func TestRequestAlternative(t *testing.T) {
	req := request(nil)
	n, err := req.Alternative("comDetail2")
	require.NoError(t, err)
	assert.Same(t, detail2, n)

	n, err = req.Alternative("")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = req.Alternative("comDetail9")
	require.ErrorIs(t, err, ErrUnknownAlternative)
}

func TestFunc(t *testing.T) {
	r := &Func{
		Vars: []string{"comSelect"},
		Fn: func(req *Request) (layout.Node, error) {
			sel, _ := req.Vars.Int("comSelect")
			if sel == 1 {
				return req.Alternative("comDetail2")
			}
			return req.Alternative("comDetail1")
		},
	}
	assert.Equal(t, []string{"comSelect"}, r.RequiredVariables())

	n, err := r.Resolve(request(map[string]any{"comSelect": int64(1)}))
	require.NoError(t, err)
	assert.Same(t, detail2, n)

	n, err = r.Resolve(request(map[string]any{"comSelect": int64(0)}))
	require.NoError(t, err)
	assert.Same(t, detail1, n)
}

// ---- expressions

func TestExprByName(t *testing.T) {
	e, err := NewExpr(`comSelect == 1 ? "comDetail2" : "comDetail1"`, "comSelect")
	require.NoError(t, err)
	assert.Equal(t, []string{"comSelect"}, e.RequiredVariables())

	n, err := e.Resolve(request(map[string]any{"comSelect": int64(1)}))
	require.NoError(t, err)
	assert.Same(t, detail2, n)

	n, err = e.Resolve(request(map[string]any{"comSelect": decimal.NewFromInt(0)}))
	require.NoError(t, err)
	assert.Same(t, detail1, n)
}

func TestExprIndexAndBool(t *testing.T) {
	e, err := NewExpr(`COM_TYPE == "B" ? 1 : -1`, "COM-TYPE")
	require.NoError(t, err)

	n, err := e.Resolve(request(map[string]any{"COM-TYPE": "B"}))
	require.NoError(t, err)
	assert.Same(t, detail2, n)

	n, err = e.Resolve(request(map[string]any{"COM-TYPE": "A"}))
	require.NoError(t, err)
	assert.Nil(t, n)

	e, err = NewExpr(`amount > 10.5`, "amount")
	require.NoError(t, err)
	n, err = e.Resolve(request(map[string]any{"amount": decimal.New(2500, -2)}))
	require.NoError(t, err)
	assert.Same(t, detail1, n)

	n, err = e.Resolve(request(map[string]any{"amount": decimal.New(250, -2)}))
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestExprErrors(t *testing.T) {
	_, err := NewExpr(`comSelect ==`, "comSelect")
	require.Error(t, err)

	_, err = NewExpr(`undeclared == 1`)
	require.Error(t, err)

	e, err := NewExpr(`"comDetail7"`)
	require.NoError(t, err)
	_, err = e.Resolve(request(nil))
	require.ErrorIs(t, err, ErrUnknownAlternative)

	e, err = NewExpr(`5`)
	require.NoError(t, err)
	_, err = e.Resolve(request(nil))
	require.ErrorIs(t, err, ErrUnknownAlternative)

	e, err = NewExpr(`comSelect`, "comSelect")
	require.NoError(t, err)
	_, err = e.Resolve(request(nil))
	require.ErrorIs(t, err, ErrMissingVariable)
}

// ---- built-in strategies

func TestPositional(t *testing.T) {
	req := request(nil)
	n, err := Positional{}.Resolve(req)
	require.NoError(t, err)
	assert.Same(t, detail1, n)

	req.Probe = func(n layout.Node) error {
		if n == detail1 {
			return errors.New("bad text")
		}
		return nil
	}
	n, err = Positional{}.Resolve(req)
	require.NoError(t, err)
	assert.Same(t, detail2, n)

	req.Probe = func(layout.Node) error { return errors.New("no") }
	_, err = Positional{}.Resolve(req)
	require.ErrorIs(t, err, ErrNoAlternative)
}

func TestPresence(t *testing.T) {
	note := &layout.Primitive{Name: "note", Encoding: numeric.Text, Length: 8}
	opt := layout.Optional(note, "flag")

	ctx := NewContext()
	req := &Request{Choice: opt, Path: "rec.note", Vars: ctx}
	_, err := Presence{}.Resolve(req)
	require.ErrorIs(t, err, ErrMissingVariable)

	ctx.Set("flag", int64(0))
	n, err := Presence{}.Resolve(req)
	require.NoError(t, err)
	assert.Nil(t, n)

	ctx.Set("flag", int64(2))
	n, err = Presence{}.Resolve(req)
	require.NoError(t, err)
	assert.Same(t, layout.Node(note), n)
}

func TestForAndRegistry(t *testing.T) {
	opt := layout.Optional(&layout.Primitive{Name: "note", Encoding: numeric.Text, Length: 8}, "flag")

	assert.IsType(t, Positional{}, For(nil, detail))
	assert.IsType(t, Presence{}, For(nil, opt))

	e, err := NewExpr(`"comDetail2"`, "comSelect")
	require.NoError(t, err)
	assert.Same(t, e, For(e, detail))

	g := NewRegistry().Register("comDetail", e)
	assert.Same(t, e, For(g, detail))
	assert.IsType(t, Presence{}, For(g, opt))

	other := &layout.Choice{Name: "other", Alternatives: []layout.Node{detail1}}
	assert.IsType(t, Positional{}, For(g, other))

	g.Default = &Func{Vars: []string{"kind"}, Fn: func(*Request) (layout.Node, error) { return nil, nil }}
	assert.Same(t, g.Default, For(g, other))
	assert.ElementsMatch(t, []string{"comSelect", "kind"}, g.RequiredVariables())

	n, err := g.Resolve(request(map[string]any{"comSelect": int64(0)}))
	require.NoError(t, err)
	assert.Same(t, detail2, n)
}
