package numeric

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Sign describes where a zoned decimal keeps its sign.
type Sign uint8

const (
	SignTrailing         Sign = iota // overpunched in the zone of the last byte
	SignLeading                      // overpunched in the zone of the first byte
	SignTrailingSeparate             // extra '+' or '-' byte after the digits
	SignLeadingSeparate              // extra '+' or '-' byte before the digits
)

// Separate reports whether the sign occupies its own byte.
func (s Sign) Separate() bool { return s == SignTrailingSeparate || s == SignLeadingSeparate }

const (
	ebcdicPlus  = 0x4E
	ebcdicMinus = 0x60
	maxInt64Dig = 18
)

// digits accumulates decimal digits in an int64 and spills to big.Int once
// more than 18 have been seen.
type digits struct {
	n   int64
	big *big.Int
	cnt int
}

var bigTen = big.NewInt(10)

func (d *digits) push(v byte) {
	d.cnt++
	if d.big == nil {
		if d.cnt <= maxInt64Dig {
			d.n = d.n*10 + int64(v)
			return
		}
		d.big = big.NewInt(d.n)
	}
	d.big.Mul(d.big, bigTen)
	d.big.Add(d.big, big.NewInt(int64(v)))
}

func (d *digits) decimal(negative bool, fractionDigits int) decimal.Decimal {
	exp := -int32(fractionDigits)
	if d.big == nil {
		if negative {
			return decimal.New(-d.n, exp)
		}
		return decimal.New(d.n, exp)
	}
	if negative {
		d.big.Neg(d.big)
	}
	return decimal.NewFromBigInt(d.big, exp)
}

// DecodePacked reads a COMP-3 field: two digits per byte, the low nibble of
// the last byte is the sign. C and F are positive, D negative. Unsigned
// fields accept only F or C.
func DecodePacked(b []byte, fractionDigits int, signed bool) (decimal.Decimal, error) {
	if len(b) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty packed field", ErrWidth)
	}
	var acc digits
	last := len(b) - 1
	for i, c := range b {
		hi, lo := c>>4, c&0x0F
		if hi > 9 {
			return decimal.Zero, fmt.Errorf("%w: digit nibble %X in byte %d", ErrInvalidPacked, hi, i)
		}
		acc.push(hi)
		if i == last {
			break
		}
		if lo > 9 {
			return decimal.Zero, fmt.Errorf("%w: digit nibble %X in byte %d", ErrInvalidPacked, lo, i)
		}
		acc.push(lo)
	}
	negative := false
	switch sign := b[last] & 0x0F; sign {
	case 0x0C, 0x0F:
	case 0x0D:
		if !signed {
			return decimal.Zero, fmt.Errorf("%w: negative sign in unsigned field", ErrInvalidPacked)
		}
		negative = true
	default:
		return decimal.Zero, fmt.Errorf("%w: sign nibble %X", ErrInvalidPacked, sign)
	}
	return acc.decimal(negative, fractionDigits), nil
}

// DecodeZoned reads a DISPLAY numeric field of EBCDIC digits F0-F9. For
// overpunched signs the zone of the sign byte is C or F for positive and D
// for negative. Unsigned fields must carry an F zone throughout.
func DecodeZoned(b []byte, fractionDigits int, signed bool, sign Sign) (decimal.Decimal, error) {
	if len(b) == 0 || (sign.Separate() && signed && len(b) < 2) {
		return decimal.Zero, fmt.Errorf("%w: zoned field of %d bytes", ErrWidth, len(b))
	}
	negative := false
	body := b
	overpunch := -1
	if signed {
		switch sign {
		case SignTrailingSeparate:
			s := b[len(b)-1]
			body = b[:len(b)-1]
			if negative = s == ebcdicMinus; !negative && s != ebcdicPlus {
				return decimal.Zero, fmt.Errorf("%w: sign byte %02X", ErrInvalidZoned, s)
			}
		case SignLeadingSeparate:
			s := b[0]
			body = b[1:]
			if negative = s == ebcdicMinus; !negative && s != ebcdicPlus {
				return decimal.Zero, fmt.Errorf("%w: sign byte %02X", ErrInvalidZoned, s)
			}
		case SignLeading:
			overpunch = 0
		default:
			overpunch = len(b) - 1
		}
	}

	var acc digits
	for i, c := range body {
		zone, d := c>>4, c&0x0F
		if d > 9 {
			return decimal.Zero, fmt.Errorf("%w: byte %02X at %d", ErrInvalidZoned, c, i)
		}
		switch {
		case zone == 0x0F:
		case i == overpunch && zone == 0x0C:
		case i == overpunch && zone == 0x0D:
			negative = true
		default:
			return decimal.Zero, fmt.Errorf("%w: byte %02X at %d", ErrInvalidZoned, c, i)
		}
		acc.push(d)
	}
	return acc.decimal(negative, fractionDigits), nil
}
