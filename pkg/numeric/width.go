package numeric

// BinaryWidth maps a PIC 9(n) COMP digit count to its storage width.
func BinaryWidth(digits int) int {
	switch {
	case digits <= 0:
		return -1
	case digits <= 4:
		return 2 // halfword
	case digits <= 9:
		return 4 // fullword
	case digits <= 18:
		return 8 // doubleword
	default:
		return -1
	}
}

// PackedWidth is the COMP-3 width for n digits plus the sign nibble.
func PackedWidth(digits int) int {
	if digits <= 0 {
		return -1
	}
	return digits/2 + 1
}

// ZonedWidth is one byte per digit, plus one for a separate sign.
func ZonedWidth(digits int, sign Sign) int {
	if digits <= 0 {
		return -1
	}
	if sign.Separate() {
		return digits + 1
	}
	return digits
}

// FixedWidth returns the only legal width for e, or -1 when the field
// length is declared by the layout.
func FixedWidth(e Encoding) int {
	switch e {
	case Float, HexFloat:
		return 4
	case Double, HexDouble:
		return 8
	default:
		return -1
	}
}

// MaxDigits is the number of digits a field of length bytes can hold.
func MaxDigits(e Encoding, length int, sign Sign) int {
	switch e {
	case Packed:
		return 2*length - 1
	case Zoned:
		if sign.Separate() {
			return length - 1
		}
		return length
	case Binary, NativeBinary:
		switch length {
		case 1:
			return 2
		case 2:
			return 4
		case 4:
			return 9
		case 8:
			return 18
		}
	}
	return 0
}

// ValidWidth reports whether length bytes is legal for e.
func ValidWidth(e Encoding, length int) bool {
	if length <= 0 {
		return false
	}
	switch e {
	case Binary, NativeBinary:
		return length == 1 || length == 2 || length == 4 || length == 8
	case Packed:
		return length <= 16
	case National:
		return length%2 == 0
	}
	if w := FixedWidth(e); w > 0 {
		return length == w
	}
	return true
}
