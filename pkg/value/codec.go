package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/rawbytedev/zosdatum/internal/common"
	"github.com/shopspring/decimal"
)

var (
	ErrUnsupported = errors.New("unsupported value type")
	ErrCorrupt     = errors.New("corrupt value encoding")
)

// Value encoding: one kind byte, then
//
//	null                  nothing
//	int                   zigzag varint
//	decimal               zigzag varint exponent, sign byte, varint n, n big-endian coefficient bytes
//	float32/float64       little-endian IEEE bits
//	string/bytes          varint length, bytes
//	record                varint count, count x (varint name length, name, value)
//	array                 varint count, values
//	union                 varint branch length, branch, value
const (
	kindNull byte = iota
	kindInt
	kindDecimal
	kindFloat32
	kindFloat64
	kindString
	kindBytes
	kindRecord
	kindArray
	kindUnion
)

// Encoder marshals values into a buffer it reuses between calls. The
// returned slice is valid until the next call to Encode.
type Encoder struct {
	buf     []byte
	scratch [8]byte
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) Encode(v any) ([]byte, error) {
	e.Reset()
	if err := e.write(v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Marshal encodes v into a fresh slice.
func Marshal(v any) ([]byte, error) {
	var e Encoder
	if err := e.write(v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (e *Encoder) write(v any) error {
	switch v := v.(type) {
	case nil:
		e.buf = append(e.buf, kindNull)
	case int64:
		e.buf = append(e.buf, kindInt)
		e.buf = common.AppendVarInt(e.buf, v)
	case decimal.Decimal:
		e.buf = append(e.buf, kindDecimal)
		e.buf = common.AppendVarInt(e.buf, int64(v.Exponent()))
		coef := v.Coefficient()
		if coef.Sign() < 0 {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
		mag := coef.Bytes()
		e.buf = common.AppendVarUint(e.buf, uint64(len(mag)))
		e.buf = append(e.buf, mag...)
	case float32:
		e.buf = append(e.buf, kindFloat32)
		binary.LittleEndian.PutUint32(e.scratch[:4], math.Float32bits(v))
		e.buf = append(e.buf, e.scratch[:4]...)
	case float64:
		e.buf = append(e.buf, kindFloat64)
		binary.LittleEndian.PutUint64(e.scratch[:], math.Float64bits(v))
		e.buf = append(e.buf, e.scratch[:]...)
	case string:
		e.buf = append(e.buf, kindString)
		e.writeBytes([]byte(v))
	case []byte:
		e.buf = append(e.buf, kindBytes)
		e.writeBytes(v)
	case *Record:
		e.buf = append(e.buf, kindRecord)
		e.buf = common.AppendVarUint(e.buf, uint64(v.Len()))
		for name, f := range v.All() {
			e.writeBytes([]byte(name))
			if err := e.write(f); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	case Array:
		e.buf = append(e.buf, kindArray)
		e.buf = common.AppendVarUint(e.buf, uint64(len(v)))
		for i, el := range v {
			if err := e.write(el); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case Union:
		e.buf = append(e.buf, kindUnion)
		e.writeBytes([]byte(v.Branch))
		return e.write(v.Value)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
	return nil
}

func (e *Encoder) writeBytes(b []byte) {
	e.buf = common.AppendVarUint(e.buf, uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// Unmarshal decodes a value produced by Marshal. Byte fields are copied.
func Unmarshal(data []byte) (any, error) {
	d := valueDecoder{data: data}
	v, err := d.read(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-d.pos)
	}
	return v, nil
}

const maxDepth = 64

type valueDecoder struct {
	data []byte
	pos  int
}

func (d *valueDecoder) uvarint() (uint64, error) {
	x, n := common.ReadVarUint(d.data[d.pos:])
	if n == 0 {
		return 0, fmt.Errorf("%w: %w at %d", ErrCorrupt, common.ErrVarint, d.pos)
	}
	d.pos += n
	return x, nil
}

func (d *valueDecoder) varint() (int64, error) {
	u, err := d.uvarint()
	return common.UnZigZag(u), err
}

func (d *valueDecoder) take(n uint64) ([]byte, error) {
	if n > uint64(len(d.data)-d.pos) {
		return nil, fmt.Errorf("%w: need %d bytes at %d", ErrCorrupt, n, d.pos)
	}
	b := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

func (d *valueDecoder) bytes() ([]byte, error) {
	n, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	return d.take(n)
}

func (d *valueDecoder) read(depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrCorrupt, maxDepth)
	}
	kind, err := d.take(1)
	if err != nil {
		return nil, err
	}
	switch kind[0] {
	case kindNull:
		return nil, nil
	case kindInt:
		return d.varint()
	case kindDecimal:
		exp, err := d.varint()
		if err != nil {
			return nil, err
		}
		sign, err := d.take(1)
		if err != nil {
			return nil, err
		}
		mag, err := d.bytes()
		if err != nil {
			return nil, err
		}
		coef := new(big.Int).SetBytes(mag)
		if sign[0] == 1 {
			coef.Neg(coef)
		}
		return decimal.NewFromBigInt(coef, int32(exp)), nil
	case kindFloat32:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case kindFloat64:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case kindString:
		b, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case kindBytes:
		b, err := d.bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte{}, b...), nil
	case kindRecord:
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(d.data)-d.pos) {
			return nil, fmt.Errorf("%w: %d fields at %d", ErrCorrupt, n, d.pos)
		}
		rec := NewRecord(int(n))
		for range n {
			name, err := d.bytes()
			if err != nil {
				return nil, err
			}
			v, err := d.read(depth + 1)
			if err != nil {
				return nil, err
			}
			rec.Set(string(name), v)
		}
		return rec, nil
	case kindArray:
		n, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(d.data)-d.pos) {
			return nil, fmt.Errorf("%w: %d elements at %d", ErrCorrupt, n, d.pos)
		}
		arr := make(Array, n)
		for i := range arr {
			if arr[i], err = d.read(depth + 1); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case kindUnion:
		branch, err := d.bytes()
		if err != nil {
			return nil, err
		}
		v, err := d.read(depth + 1)
		if err != nil {
			return nil, err
		}
		return Union{Branch: string(branch), Value: v}, nil
	default:
		return nil, fmt.Errorf("%w: kind %d at %d", ErrCorrupt, kind[0], d.pos-1)
	}
}
