package memory

import (
	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/types"
)

// Pointer is a typed view of a native address. It carries no bound: the
// address is trusted to refer to memory laid out as the pointee type says.
type Pointer struct {
	typ  *types.Type // pointee type; nil means void*
	addr uintptr
}

// NewPointer creates a typed pointer over addr.
func NewPointer(pointee *types.Type, addr uintptr) Pointer {
	return Pointer{typ: pointee, addr: addr}
}

// Null returns the null pointer of the given pointee type.
func Null(pointee *types.Type) Pointer {
	return Pointer{typ: pointee}
}

// Addr returns the raw address.
func (p Pointer) Addr() uintptr { return p.addr }

// Pointee returns the pointee type descriptor, nil for void*.
func (p Pointer) Pointee() *types.Type { return p.typ }

// IsNull reports whether the pointer is null.
func (p Pointer) IsNull() bool { return p.addr == 0 }

// UnsafeCast reinterprets the address as pointing to a different type.
// Nothing verifies that the underlying memory matches the target layout; a
// mismatch is undefined behavior, not a catchable error. The name is the
// acknowledgment: call sites reading it know the check they are waiving.
func UnsafeCast(target *types.Type, p Pointer) Pointer {
	return Pointer{typ: target, addr: p.addr}
}

// Offset moves the pointer by n elements, where one element step is
// exactly the pointee type's native size, never one raw byte. Stepping a
// void* or an unsized pointee is refused.
func (p Pointer) Offset(n int) (Pointer, error) {
	if p.addr == 0 {
		return Pointer{}, errors.NullDereference(p.typeName())
	}
	size, err := p.stride()
	if err != nil {
		return Pointer{}, err
	}
	return Pointer{typ: p.typ, addr: p.addr + uintptr(n)*size}, nil
}

// Index returns a typed pointer to element n, identical stepping rules
// to Offset.
func (p Pointer) Index(n int) (Pointer, error) {
	return p.Offset(n)
}

func (p Pointer) stride() (uintptr, error) {
	if p.typ == nil {
		return 0, errors.InvalidInput(errors.PhaseCall, "cannot step a void pointer")
	}
	size, err := types.SizeOf(p.typ)
	if err != nil {
		return 0, err
	}
	if size == 0 {
		return 0, errors.InvalidInput(errors.PhaseCall, "cannot step a pointer to a zero-sized type")
	}
	return size, nil
}

func (p Pointer) typeName() string {
	if p.typ == nil {
		return "*void"
	}
	return "*" + p.typ.Name()
}

// checkDeref guards every read/write through the pointer.
func (p Pointer) checkDeref() error {
	if p.addr == 0 {
		return errors.NullDereference(p.typeName())
	}
	return nil
}

// ReadScalar reads the pointee as a scalar value: signed integers widen
// to int64, unsigned to uint64, floats to float64, pointer-like pointees
// surface as a further Pointer.
func (p Pointer) ReadScalar() (any, error) {
	if err := p.checkDeref(); err != nil {
		return nil, err
	}
	if p.typ == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "cannot dereference a void pointer")
	}
	switch p.typ.Kind() {
	case types.KindInt:
		switch p.typ.Bits() {
		case 8:
			return int64(int8(ReadU8(p.addr))), nil
		case 16:
			return int64(int16(ReadU16(p.addr))), nil
		case 32:
			return int64(int32(ReadU32(p.addr))), nil
		default:
			return int64(ReadU64(p.addr)), nil
		}
	case types.KindUint:
		switch p.typ.Bits() {
		case 8:
			return uint64(ReadU8(p.addr)), nil
		case 16:
			return uint64(ReadU16(p.addr)), nil
		case 32:
			return uint64(ReadU32(p.addr)), nil
		default:
			return ReadU64(p.addr), nil
		}
	case types.KindFloat:
		if p.typ.Bits() == 32 {
			return float64(ReadF32(p.addr)), nil
		}
		return ReadF64(p.addr), nil
	case types.KindPointer:
		return NewPointer(p.typ.Elem(), ReadPtr(p.addr)), nil
	case types.KindOpaque:
		return NewPointer(nil, ReadPtr(p.addr)), nil
	}
	return nil, errors.InvalidInput(errors.PhaseCall, "pointee "+p.typ.Name()+" is not scalar; use Field/Index access")
}

// Field returns a typed pointer to the named member of a struct or union
// pointee.
func (p Pointer) Field(name string) (Pointer, error) {
	if err := p.checkDeref(); err != nil {
		return Pointer{}, err
	}
	if p.typ == nil || !p.typ.Kind().IsAggregate() {
		return Pointer{}, errors.InvalidInput(errors.PhaseCall, "pointee is not an aggregate")
	}
	if !p.typ.Registered() {
		if err := types.Complete(p.typ); err != nil {
			return Pointer{}, err
		}
	}
	f, ok := p.typ.FieldByName(name)
	if !ok {
		return Pointer{}, errors.InvalidInput(errors.PhaseCall, "no field "+name+" in "+p.typ.Name())
	}
	fieldAddr := p.addr + f.Offset()
	if f.Mode == types.Referenced {
		return NewPointer(f.Type, ReadPtr(fieldAddr)), nil
	}
	return NewPointer(f.Type, fieldAddr), nil
}
