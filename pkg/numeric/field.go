package numeric

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// Field is everything the codec needs to turn a byte range into a scalar.
type Field struct {
	Encoding       Encoding
	Digits         int
	FractionDigits int
	Signed         bool
	Sign           Sign
	Charset        *charmap.Charmap
	Fill           byte
	Trim           bool
}

// Decode converts b into the scalar type for the field:
// int64 for integers of up to 18 digits, decimal.Decimal for scaled or
// longer decimals, float32/float64 for floating point, string for text
// and []byte (aliasing b) for octets.
func (f *Field) Decode(b []byte) (any, error) {
	switch f.Encoding {
	case Octets:
		return b, nil
	case Text:
		cm := f.Charset
		if cm == nil {
			cm = charmap.CodePage037
		}
		return DecodeText(b, cm, f.Fill, f.Trim), nil
	case National:
		return DecodeNational(b, f.Trim)
	case Binary, NativeBinary:
		n, err := DecodeBinary(b, f.Signed)
		if err != nil {
			return nil, err
		}
		if f.FractionDigits > 0 {
			return decimal.New(n, -int32(f.FractionDigits)), nil
		}
		return n, nil
	case Packed:
		d, err := DecodePacked(b, f.FractionDigits, f.Signed)
		if err != nil {
			return nil, err
		}
		return f.narrow(d, MaxDigits(Packed, len(b), f.Sign))
	case Zoned:
		d, err := DecodeZoned(b, f.FractionDigits, f.Signed, f.Sign)
		if err != nil {
			return nil, err
		}
		return f.narrow(d, MaxDigits(Zoned, len(b), f.Sign))
	case Float:
		return DecodeFloat32(b)
	case Double:
		return DecodeFloat64(b)
	case HexFloat:
		return DecodeHexFloat32(b)
	case HexDouble:
		return DecodeHexFloat64(b)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownEncoding, f.Encoding)
	}
}

// narrow rejects values with more digits than declared, then returns
// whole numbers of up to 18 digits as int64.
func (f *Field) narrow(d decimal.Decimal, width int) (any, error) {
	digits := f.Digits
	if digits == 0 || digits > width {
		digits = width
	}
	if digits < width {
		limit := decimal.New(1, int32(digits-f.FractionDigits))
		if d.Abs().GreaterThanOrEqual(limit) {
			return nil, fmt.Errorf("%w: %s has more than %d digits", ErrOutOfRange, d, digits)
		}
	}
	if f.FractionDigits == 0 && digits <= maxInt64Dig {
		return d.IntPart(), nil
	}
	return d, nil
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// AsInt64 converts a decoded numeric scalar to an integer count or
// discriminant. Decimals must be whole.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case decimal.Decimal:
		if !n.Equal(n.Truncate(0)) || n.Abs().GreaterThan(maxInt64) {
			return 0, false
		}
		return n.IntPart(), true
	default:
		return 0, false
	}
}
