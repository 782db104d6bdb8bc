// Package common holds the low-level integer encodings shared by the
// portable value codec and the compactwire frames.
package common

import "errors"

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 10

// ErrVarint is returned when a varint is truncated or longer than 64 bits.
var ErrVarint = errors.New("malformed varint")

// AppendVarUint appends varint-encoded x to dst using a small stack scratch.
func AppendVarUint(dst []byte, x uint64) []byte {
	var scratch [MaxVarintLen]byte
	i := 0
	for x >= 0x80 {
		scratch[i] = byte(x) | 0x80
		x >>= 7
		i++
	}
	scratch[i] = byte(x)
	i++
	return append(dst, scratch[:i]...)
}

// ReadVarUint decodes a varint from b returning value and bytes consumed.
// A zero count means b did not hold a complete varint.
func ReadVarUint(b []byte) (uint64, int) {
	var x uint64
	var s uint
	for i, c := range b {
		if i == MaxVarintLen {
			return 0, 0
		}
		x |= uint64(c&0x7F) << s
		if c&0x80 == 0 {
			return x, i + 1
		}
		s += 7
	}
	return 0, 0
}

// AppendVarInt appends a zigzag varint so small negative values stay short.
func AppendVarInt(dst []byte, x int64) []byte {
	return AppendVarUint(dst, ZigZag(x))
}

// ReadVarInt is the inverse of AppendVarInt.
func ReadVarInt(b []byte) (int64, int) {
	u, n := ReadVarUint(b)
	return UnZigZag(u), n
}

func ZigZag(x int64) uint64 {
	return uint64(x<<1) ^ uint64(x>>63)
}

func UnZigZag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
