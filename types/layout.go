package types

import (
	"fmt"

	"github.com/nativebind/native-runtime/errors"
)

// The layout engine applies the C ABI aggregate rules: member alignment is
// the member's natural alignment, aggregate alignment is the maximum member
// alignment, and total size is rounded up to the aggregate alignment.
// Union members alias the same bytes, sized to the largest member.

func alignUp(x, a uintptr) uintptr {
	m := a - 1
	return (x + m) &^ m
}

func mulOverflows(a, b uintptr) bool {
	const max = ^uintptr(0)
	return b != 0 && a > max/b
}

// Complete computes the layout of t and everything it embeds. It is
// idempotent and rejects shapes with no native representation.
func Complete(t *Type) error {
	return complete(t, make(map[*Type]bool))
}

func complete(t *Type, visiting map[*Type]bool) error {
	if t == nil {
		return errors.UnsupportedType("nil", "missing type descriptor")
	}
	if t.laid {
		return nil
	}
	if visiting[t] {
		return errors.UnsupportedType(t.Name(), "recursive embedded aggregate has unbounded size")
	}
	visiting[t] = true
	defer delete(visiting, t)

	switch t.kind {
	case KindArray:
		if t.length < 0 {
			return errors.UnsupportedType(t.Name(), "array count must be non-negative")
		}
		if err := complete(t.elem, visiting); err != nil {
			return err
		}
		if t.elem.size == 0 {
			return errors.UnsupportedType(t.Name(), "array of zero-sized element")
		}
		if mulOverflows(uintptr(t.length), t.elem.size) {
			return errors.UnsupportedType(t.Name(), "array size overflows")
		}
		t.size = uintptr(t.length) * t.elem.size
		t.align = t.elem.align

	case KindStruct:
		var off uintptr
		maxAlign := uintptr(1)
		for i := range t.fields {
			f := &t.fields[i]
			size, align, err := fieldLayout(f, visiting)
			if err != nil {
				return errors.New(errors.PhaseRegister, errors.KindUnsupportedType).
					Type(t.Name()).
					Detail("field %s", f.Name).
					Cause(err).
					Build()
			}
			off = alignUp(off, align)
			f.offset = off
			off += size
			if align > maxAlign {
				maxAlign = align
			}
		}
		t.align = maxAlign
		t.size = alignUp(off, maxAlign)

	case KindUnion:
		var maxSize uintptr
		maxAlign := uintptr(1)
		for i := range t.fields {
			f := &t.fields[i]
			size, align, err := fieldLayout(f, visiting)
			if err != nil {
				return errors.New(errors.PhaseRegister, errors.KindUnsupportedType).
					Type(t.Name()).
					Detail("member %s", f.Name).
					Cause(err).
					Build()
			}
			f.offset = 0
			if size > maxSize {
				maxSize = size
			}
			if align > maxAlign {
				maxAlign = align
			}
		}
		t.align = maxAlign
		t.size = alignUp(maxSize, maxAlign)

	default:
		// Scalars and pointer-like shapes are laid out at construction;
		// arriving here means the descriptor was built by hand.
		return errors.UnsupportedType(t.Name(), fmt.Sprintf("kind %s has no registrable layout", t.kind))
	}

	t.laid = true
	return nil
}

// fieldLayout returns the footprint one field contributes to its aggregate.
// Referenced fields are always a single pointer-width slot; Embedded fields
// inline their full layout, recursively.
func fieldLayout(f *Field, visiting map[*Type]bool) (size, align uintptr, err error) {
	if f.Type == nil {
		return 0, 0, errors.UnsupportedType(f.Name, "missing field type")
	}
	if f.Mode == Referenced {
		return ptrSize, ptrSize, nil
	}
	if f.Type.kind == KindVoid {
		return 0, 0, errors.UnsupportedType("void", "void is not a storable member")
	}
	if err := complete(f.Type, visiting); err != nil {
		return 0, 0, err
	}
	return f.Type.size, f.Type.align, nil
}

// SizeOf computes the native byte size of a type without requiring a live
// instance, completing the layout if it has not been computed yet.
func SizeOf(t *Type) (uintptr, error) {
	if t == nil {
		return 0, errors.UnsupportedType("nil", "missing type descriptor")
	}
	if !t.laid {
		if err := Complete(t); err != nil {
			return 0, err
		}
	}
	return t.size, nil
}

// AlignOf computes the native alignment of a type, completing the layout
// if needed.
func AlignOf(t *Type) (uintptr, error) {
	if t == nil {
		return 0, errors.UnsupportedType("nil", "missing type descriptor")
	}
	if !t.laid {
		if err := Complete(t); err != nil {
			return 0, err
		}
	}
	return t.align, nil
}
