package decoder

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/rawbytedev/zosdatum/pkg/layout"
	"github.com/rawbytedev/zosdatum/pkg/numeric"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func mustHex(t testing.TB, parts ...string) []byte {
	t.Helper()
	var out []byte
	for _, p := range parts {
		b, err := hex.DecodeString(p)
		require.NoError(t, err)
		out = append(out, b...)
	}
	return out
}

// ebcdic encodes s under IBM037 padded with spaces to n bytes.
func ebcdic(t testing.TB, s string, n int) []byte {
	t.Helper()
	b, err := charmap.CodePage037.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return append(b, bytes.Repeat([]byte{0x40}, n-len(b))...)
}

func zoned(name string, digits int) *layout.Primitive {
	return &layout.Primitive{Name: name, Encoding: numeric.Zoned, Length: digits}
}

func text(name string, n int) *layout.Primitive {
	return &layout.Primitive{Name: name, Encoding: numeric.Text, Length: n, Trim: true}
}

func packed(name string, digits, scale int, signed bool) *layout.Primitive {
	return &layout.Primitive{
		Name:           name,
		Encoding:       numeric.Packed,
		Length:         numeric.PackedWidth(digits),
		FractionDigits: scale,
		Signed:         signed,
	}
}

func comp(name string, digits int) *layout.Primitive {
	return &layout.Primitive{Name: name, Encoding: numeric.Binary, Length: numeric.BinaryWidth(digits), Signed: true}
}

func group(name string, fields ...layout.Node) *layout.Composite {
	return &layout.Composite{Name: name, Fields: fields}
}

// flat01: 9(6) DISPLAY, X(20), 9(5)V99 COMP-3.
func flat01() *layout.Composite {
	return group("flat01Record",
		zoned("comNumber", 6),
		text("comName", 20),
		packed("comAmount", 7, 2, false),
	)
}

const flat01Hex = "F0F0F1F0F4F3D5C1D4C5F0F0F0F0F4F3404040404040404040400215000F"

// flat02 adds S9(4) COMP OCCURS 5.
func flat02() *layout.Composite {
	g := flat01()
	g.Name = "flat02Record"
	g.Fields = append(g.Fields, &layout.Array{Name: "comArray", Element: comp("comArray", 4), MinOccurs: 5, MaxOccurs: 5})
	return g
}

const flat02Hex = "F0F0F0F0F6F2D5C1D4C5F0F0F0F0F6F2404040404040404040400310000F003E001F0014000F000C"

// stru03 adds OCCURS 5 of a group {S9(4) COMP, X(2)}.
func stru03() *layout.Composite {
	g := flat01()
	g.Name = "stru03Record"
	item := group("comArray", comp("comItem1", 4), text("comItem2", 2))
	g.Fields = append(g.Fields, &layout.Array{Name: "comArray", Element: item, MinOccurs: 5, MaxOccurs: 5})
	return g
}

// rdef01: 9(4) COMP select then a two-way REDEFINES.
func rdef01() *layout.Composite {
	return group("rdef01Record",
		&layout.Primitive{Name: "comSelect", Encoding: numeric.Binary, Length: 2},
		&layout.Choice{Name: "comDetail", Alternatives: []layout.Node{
			group("comDetail1", text("comName", 10)),
			group("comDetail2", packed("comAmount", 7, 2, false)),
		}},
	)
}

// rdef03 adds a third alternative holding 9(5) DISPLAY.
func rdef03() *layout.Composite {
	return group("rdef03Record",
		&layout.Primitive{Name: "comSelect", Encoding: numeric.Binary, Length: 2},
		&layout.Choice{Name: "comDetail", Alternatives: []layout.Node{
			group("comDetail1", text("comName", 10)),
			group("comDetail2", packed("comAmount", 7, 2, false)),
			group("comDetail3", zoned("comNumber", 5)),
		}},
	)
}

// ardo01: OCCURS 0 TO 5 DEPENDING ON comNbr of S9(13)V99 COMP-3.
func ardo01() *layout.Composite {
	return group("ardo01Record",
		zoned("comNumber", 6),
		text("comName", 20),
		comp("comNbr", 4),
		&layout.Array{Name: "comArray", Element: packed("comArray", 15, 2, true), MaxOccurs: 5, DependingOn: "comNbr"},
	)
}

// optl01: two presence counters, an optional group and an optional X(32).
func optl01() *layout.Composite {
	return group("optl01Record",
		zoned("comTableCount", 3),
		zoned("comStringCount", 3),
		layout.Optional(group("comTable", text("comItem1", 18), text("comItem2", 5)), "comTableCount"),
		layout.Optional(text("comString", 32), "comStringCount"),
	)
}
