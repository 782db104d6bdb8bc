package value

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrNotStructPtr = errors.New("expected pointer to struct")

// Bind copies a decoded record into the struct out points to.
//
// Fields match on the `zos:"name"` tag or, without one, on the field name
// compared case-insensitively with dashes and underscores ignored, so
// COM-NAME, comName and ComName all meet. Record fields with no matching
// struct field are skipped. Absent fields leave the struct field untouched.
// Unions bind into a struct holding one field per branch, usually pointers.
func Bind(rec *Record, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPtr
	}
	return bindRecord(v.Elem(), rec, "")
}

type bindPlan struct {
	fields map[string]int
}

type binder struct {
	mu    sync.RWMutex
	plans map[reflect.Type]*bindPlan
}

var plans = &binder{plans: make(map[reflect.Type]*bindPlan)}

func (b *binder) getPlan(t reflect.Type) *bindPlan {
	b.mu.RLock()
	if plan, ok := b.plans[t]; ok {
		b.mu.RUnlock()
		return plan
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Double-check
	if plan, ok := b.plans[t]; ok {
		return plan
	}

	plan := &bindPlan{fields: make(map[string]int, t.NumField())}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue // skip unexported
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("zos"); ok {
			if tag == "-" {
				continue
			}
			name, _, _ = strings.Cut(tag, ",")
		}
		plan.fields[foldName(name)] = i
	}
	b.plans[t] = plan
	return plan
}

func foldName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

func bindRecord(dst reflect.Value, rec *Record, path string) error {
	plan := plans.getPlan(dst.Type())
	for name, v := range rec.All() {
		idx, ok := plan.fields[foldName(name)]
		if !ok {
			continue // skip unknown fields
		}
		if err := setValue(dst.Field(idx), v, joinPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func bindUnion(dst reflect.Value, u Union, path string) error {
	plan := plans.getPlan(dst.Type())
	idx, ok := plan.fields[foldName(u.Branch)]
	if !ok {
		return nil
	}
	return setValue(dst.Field(idx), u.Value, joinPath(path, u.Branch))
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func setValue(dst reflect.Value, v any, path string) error {
	if v == nil {
		return nil
	}
	if dst.Type() == decimalType {
		d, ok := toDecimal(v)
		if !ok {
			return mismatch(path, v, dst)
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	}
	switch dst.Kind() {
	case reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		if err := setValue(elem.Elem(), v, path); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Interface:
		rv := reflect.ValueOf(DeepCopy(v))
		if !rv.Type().AssignableTo(dst.Type()) {
			return mismatch(path, v, dst)
		}
		dst.Set(rv)
		return nil
	case reflect.Struct:
		switch v := v.(type) {
		case *Record:
			return bindRecord(dst, v, path)
		case Union:
			return bindUnion(dst, v, path)
		}
	case reflect.Slice:
		if b, ok := v.([]byte); ok && dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes(bytes.Clone(b))
			return nil
		}
		if arr, ok := v.(Array); ok {
			s := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
			for i, e := range arr {
				if err := setValue(s.Index(i), e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
			dst.Set(s)
			return nil
		}
	case reflect.Array:
		if arr, ok := v.(Array); ok {
			for i := 0; i < dst.Len() && i < len(arr); i++ {
				if err := setValue(dst.Index(i), arr[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
			return nil
		}
	case reflect.String:
		switch v := v.(type) {
		case string:
			dst.SetString(v)
			return nil
		case []byte:
			dst.SetString(string(v))
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := toInt(v); ok && !dst.OverflowInt(n) {
			dst.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := toInt(v); ok && n >= 0 && !dst.OverflowUint(uint64(n)) {
			dst.SetUint(uint64(n))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch v := v.(type) {
		case float32:
			dst.SetFloat(float64(v))
			return nil
		case float64:
			dst.SetFloat(v)
			return nil
		case int64:
			dst.SetFloat(float64(v))
			return nil
		case decimal.Decimal:
			dst.SetFloat(v.InexactFloat64())
			return nil
		}
	}
	return mismatch(path, v, dst)
}

func mismatch(path string, v any, dst reflect.Value) error {
	return fmt.Errorf("%w: %s: cannot bind %T to %s", ErrUnsupported, path, v, dst.Type())
}

func toInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case decimal.Decimal:
		if !v.Equal(v.Truncate(0)) {
			return 0, false
		}
		if !v.BigInt().IsInt64() {
			return 0, false
		}
		return v.IntPart(), true
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	}
	return decimal.Decimal{}, false
}
