package numeric

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeBinary reads a big-endian integer of width 1, 2, 4 or 8.
// Signed values are two's complement.
func DecodeBinary(b []byte, signed bool) (int64, error) {
	switch len(b) {
	case 1:
		if signed {
			return int64(int8(b[0])), nil
		}
		return int64(b[0]), nil
	case 2:
		u := binary.BigEndian.Uint16(b)
		if signed {
			return int64(int16(u)), nil
		}
		return int64(u), nil
	case 4:
		u := binary.BigEndian.Uint32(b)
		if signed {
			return int64(int32(u)), nil
		}
		return int64(u), nil
	case 8:
		u := binary.BigEndian.Uint64(b)
		if signed {
			return int64(u), nil
		}
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: unsigned binary %d", ErrOutOfRange, u)
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("%w: binary field of %d bytes", ErrWidth, len(b))
	}
}

// DecodeFloat32 reads an IEEE754 single stored big-endian.
func DecodeFloat32(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: float of %d bytes", ErrWidth, len(b))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// DecodeFloat64 reads an IEEE754 double stored big-endian.
func DecodeFloat64(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: double of %d bytes", ErrWidth, len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// DecodeHexFloat32 reads an IBM hexadecimal single (COMP-1): sign bit,
// 7-bit excess-64 base-16 exponent, 24-bit fraction.
func DecodeHexFloat32(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: hex float of %d bytes", ErrWidth, len(b))
	}
	bits := binary.BigEndian.Uint32(b)
	exp := int((bits>>24)&0x7F) - 64
	frac := bits & 0x00FFFFFF
	v := math.Ldexp(float64(frac), 4*exp-24)
	if bits&0x80000000 != 0 {
		v = -v
	}
	return float32(v), nil
}

// DecodeHexFloat64 reads an IBM hexadecimal double (COMP-2). The 56-bit
// fraction is rounded to the 53 bits a float64 holds.
func DecodeHexFloat64(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: hex double of %d bytes", ErrWidth, len(b))
	}
	bits := binary.BigEndian.Uint64(b)
	exp := int((bits>>56)&0x7F) - 64
	frac := bits & 0x00FFFFFFFFFFFFFF
	v := math.Ldexp(float64(frac), 4*exp-56)
	if bits&(1<<63) != 0 {
		v = -v
	}
	return v, nil
}
