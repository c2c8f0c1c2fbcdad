package call

import (
	"sync"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/loader"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// ExternVar is a typed accessor over a native global variable. Like a
// call site, the symbol address resolves once, on first access.
type ExternVar struct {
	lib  *loader.Library
	name string
	typ  *types.Type

	bindOnce sync.Once
	addr     uintptr
	bindErr  error
}

// NewExternVar declares an accessor for the global named symbol in lib.
func NewExternVar(lib *loader.Library, symbol string, t *types.Type) (*ExternVar, error) {
	if lib == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "nil library")
	}
	if symbol == "" {
		return nil, errors.InvalidInput(errors.PhaseBind, "empty symbol name")
	}
	if t == nil || t.Kind() == types.KindVoid {
		return nil, errors.InvalidInput(errors.PhaseBind, "extern variable requires a sized type")
	}
	if err := ensureLaid(t); err != nil {
		return nil, err
	}
	return &ExternVar{lib: lib, name: symbol, typ: t}, nil
}

func (v *ExternVar) bind() error {
	v.bindOnce.Do(func() {
		v.addr, v.bindErr = v.lib.Symbol(v.name)
	})
	return v.bindErr
}

// Addr returns the variable's native address, binding on first use.
func (v *ExternVar) Addr() (uintptr, error) {
	if err := v.bind(); err != nil {
		return 0, err
	}
	return v.addr, nil
}

// Ptr returns a typed pointer to the variable's storage.
func (v *ExternVar) Ptr() (memory.Pointer, error) {
	addr, err := v.Addr()
	if err != nil {
		return memory.Pointer{}, err
	}
	return memory.NewPointer(v.typ, addr), nil
}

// Read returns the variable's current value: primitives widen the usual
// way, strings decode through their declared encoding (NULL reads as
// nil), and aggregates surface as a typed pointer into the variable's
// storage.
func (v *ExternVar) Read() (any, error) {
	p, err := v.Ptr()
	if err != nil {
		return nil, err
	}
	switch v.typ.Kind() {
	case types.KindString:
		s, ok, err := decodeText(memory.ReadPtr(p.Addr()), v.typ.Encoding())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return s, nil
	case types.KindCallback:
		return memory.NewPointer(nil, memory.ReadPtr(p.Addr())), nil
	case types.KindStruct, types.KindUnion, types.KindArray:
		return p, nil
	}
	return p.ReadScalar()
}

// Write stores val into the variable. Primitives validate against the
// declared width before anything is written; pointer-shaped types accept
// the usual pointer-shaped values; strings accept a *RetainedString or
// nil, since the native side keeps whatever address is stored.
func (v *ExternVar) Write(val any) error {
	addr, err := v.Addr()
	if err != nil {
		return err
	}

	switch v.typ.Kind() {
	case types.KindInt, types.KindUint, types.KindFloat:
		word, err := marshalScalarWord(v.typ, val)
		if err != nil {
			return err
		}
		switch v.typ.Bits() {
		case 8:
			memory.WriteU8(addr, uint8(word))
		case 16:
			memory.WriteU16(addr, uint16(word))
		case 32:
			memory.WriteU32(addr, uint32(word))
		default:
			memory.WriteU64(addr, word)
		}
		return nil

	case types.KindString:
		switch s := val.(type) {
		case nil:
			memory.WritePtr(addr, 0)
			return nil
		case *RetainedString:
			if s == nil {
				memory.WritePtr(addr, 0)
				return nil
			}
			memory.WritePtr(addr, s.Addr())
			return nil
		}
		return errors.MarshalType(v.typ.Name(), val, "extern string requires *RetainedString or nil; a transient buffer would dangle")

	case types.KindPointer, types.KindOpaque, types.KindCallback:
		a, ok := addressOf(v.typ, val)
		if !ok {
			return errors.MarshalType(v.typ.Name(), val, "pointer-shaped value required")
		}
		memory.WritePtr(addr, a)
		return nil
	}
	return errors.MarshalType(v.typ.Name(), val, "aggregate globals are written through their fields")
}
