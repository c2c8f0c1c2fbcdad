package call

import (
	"math"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// A scalar argument or return value travels through one 8-byte slot. The
// bit pattern is laid out for a little-endian ABI: the value occupies the
// low-order bytes of the word, which is where libffi reads a narrower
// type from.

// intValue widens any Go signed integer to int64.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// uintValue widens any Go integer to uint64, refusing negative values.
func uintValue(v any) (uint64, bool, bool) {
	if n, ok := intValue(v); ok {
		if n < 0 {
			return 0, true, false
		}
		return uint64(n), true, true
	}
	switch n := v.(type) {
	case uint:
		return uint64(n), true, true
	case uint8:
		return uint64(n), true, true
	case uint16:
		return uint64(n), true, true
	case uint32:
		return uint64(n), true, true
	case uint64:
		return n, true, true
	case uintptr:
		return uint64(n), true, true
	}
	return 0, false, false
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if n, ok := intValue(v); ok {
		return float64(n), true
	}
	return 0, false
}

// marshalScalarWord validates v against the declared primitive and packs
// it into a slot word. Every rejection happens here, before any native
// code runs.
func marshalScalarWord(t *types.Type, v any) (uint64, error) {
	switch t.Kind() {
	case types.KindInt:
		n, ok := intValue(v)
		if !ok {
			if u, isUint, fits := uintValue(v); isUint {
				if !fits || u > math.MaxInt64 {
					return 0, errors.Overflow(t.Name(), v)
				}
				n = int64(u)
			} else {
				return 0, errors.MarshalType(t.Name(), v, "integer value required")
			}
		}
		bits := t.Bits()
		if bits < 64 {
			limit := int64(1) << (bits - 1)
			if n < -limit || n >= limit {
				return 0, errors.Overflow(t.Name(), v)
			}
		}
		return uint64(n), nil

	case types.KindUint:
		u, isInt, fits := uintValue(v)
		if !isInt {
			return 0, errors.MarshalType(t.Name(), v, "integer value required")
		}
		if !fits {
			return 0, errors.Overflow(t.Name(), v)
		}
		bits := t.Bits()
		if bits < 64 && u >= uint64(1)<<bits {
			return 0, errors.Overflow(t.Name(), v)
		}
		return u, nil

	case types.KindFloat:
		f, ok := floatValue(v)
		if !ok {
			return 0, errors.MarshalType(t.Name(), v, "float value required")
		}
		if t.Bits() == 32 {
			narrow := float32(f)
			if float64(narrow) != f && !math.IsNaN(f) {
				return 0, errors.Overflow(t.Name(), v)
			}
			return uint64(math.Float32bits(narrow)), nil
		}
		return math.Float64bits(f), nil
	}
	return 0, errors.MarshalType(t.Name(), v, "not a primitive type")
}

// unmarshalScalarWord converts a slot word produced by native code back
// into a managed value: signed widths widen to int64, unsigned to uint64,
// floats to float64.
func unmarshalScalarWord(t *types.Type, word uint64) any {
	switch t.Kind() {
	case types.KindInt:
		switch t.Bits() {
		case 8:
			return int64(int8(word))
		case 16:
			return int64(int16(word))
		case 32:
			return int64(int32(word))
		default:
			return int64(word)
		}
	case types.KindUint:
		switch t.Bits() {
		case 8:
			return uint64(uint8(word))
		case 16:
			return uint64(uint16(word))
		case 32:
			return uint64(uint32(word))
		default:
			return word
		}
	case types.KindFloat:
		if t.Bits() == 32 {
			return float64(math.Float32frombits(uint32(word)))
		}
		return math.Float64frombits(word)
	}
	return nil
}

// addressOf extracts the native address from any of the pointer-shaped
// managed values the dispatcher accepts.
func addressOf(t *types.Type, v any) (uintptr, bool) {
	switch p := v.(type) {
	case nil:
		return 0, true
	case memory.Pointer:
		return p.Addr(), true
	case *memory.Block:
		if p == nil {
			return 0, true
		}
		return p.Addr(), true
	case *memory.Composite:
		if p == nil {
			return 0, true
		}
		return p.Addr(), true
	case *RetainedString:
		if p == nil {
			return 0, true
		}
		return p.Addr(), true
	case uintptr:
		return p, true
	}
	return 0, false
}

// outTarget describes an Out/InOut primitive binding: a pointer to the
// caller's Go variable, written back after the call returns.
type outTarget struct {
	write func(word uint64)
	seed  uint64 // current value, used to pre-fill InOut storage
}

// outBinding validates a pointer-to-variable argument for an Out or InOut
// primitive parameter.
func outBinding(t *types.Type, v any) (*outTarget, error) {
	switch p := v.(type) {
	case *int8:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = int8(w) }}, nil
	case *int16:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = int16(w) }}, nil
	case *int32:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = int32(w) }}, nil
	case *int64:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = int64(w) }}, nil
	case *uint8:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = uint8(w) }}, nil
	case *uint16:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = uint16(w) }}, nil
	case *uint32:
		return &outTarget{seed: uint64(*p), write: func(w uint64) { *p = uint32(w) }}, nil
	case *uint64:
		return &outTarget{seed: *p, write: func(w uint64) { *p = w }}, nil
	case *float32:
		return &outTarget{
			seed:  uint64(math.Float32bits(*p)),
			write: func(w uint64) { *p = math.Float32frombits(uint32(w)) },
		}, nil
	case *float64:
		return &outTarget{
			seed:  math.Float64bits(*p),
			write: func(w uint64) { *p = math.Float64frombits(w) },
		}, nil
	}
	return nil, errors.MarshalType(t.Name(), v, "out parameter requires a pointer to a sized Go variable")
}
