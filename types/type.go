package types

import (
	"fmt"
	"strings"
	"unsafe"
)

const ptrSize = uintptr(unsafe.Sizeof(uintptr(0)))

// StorageMode controls how a composite field is stored.
type StorageMode uint8

const (
	// Embedded inlines the field's full layout into the enclosing aggregate.
	Embedded StorageMode = iota
	// Referenced stores a pointer-width slot regardless of pointee complexity.
	Referenced
)

func (m StorageMode) String() string {
	if m == Referenced {
		return "referenced"
	}
	return "embedded"
}

// Field is one named member of a struct or union. Order is significant
// and fixed at construction.
type Field struct {
	Name string
	Type *Type
	Mode StorageMode

	offset uintptr // filled by the layout engine
}

// Offset returns the byte offset of the field inside its aggregate.
// Valid only after the enclosing type has been registered.
func (f *Field) Offset() uintptr { return f.offset }

// Type is the engine's TypeDescriptor: a tagged variant describing one
// native type shape. A Type is immutable once registered; the layout
// engine fills size, alignment and field offsets exactly once.
type Type struct {
	kind     Kind
	name     string
	bits     int      // int/uint/float width
	elem     *Type    // pointer target (nil for void*), array element
	length   int      // array element count
	fields   []Field  // struct/union members, declaration order
	encoding Encoding // strings
	params   []*Type  // callback parameters
	result   *Type    // callback return

	size  uintptr
	align uintptr
	laid  bool // layout computed
}

// Kind returns the variant tag.
func (t *Type) Kind() Kind { return t.kind }

// Name returns the declared name, if any.
func (t *Type) Name() string {
	if t.name != "" {
		return t.name
	}
	return t.describe()
}

// Bits returns the declared width of a primitive in bits.
func (t *Type) Bits() int { return t.bits }

// Elem returns the pointer target or array element type. A nil result on
// a pointer means void*.
func (t *Type) Elem() *Type { return t.elem }

// Len returns the declared element count of an array.
func (t *Type) Len() int { return t.length }

// Fields returns the ordered members of a struct or union.
func (t *Type) Fields() []Field { return t.fields }

// FieldByName returns the named member and whether it exists.
func (t *Type) FieldByName(name string) (*Field, bool) {
	for i := range t.fields {
		if t.fields[i].Name == name {
			return &t.fields[i], true
		}
	}
	return nil, false
}

// Encoding returns the declared text encoding of a string type.
func (t *Type) Encoding() Encoding { return t.encoding }

// Params returns the parameter types of a callback type.
func (t *Type) Params() []*Type { return t.params }

// Result returns the return type of a callback type.
func (t *Type) Result() *Type { return t.result }

// Size returns the native byte size. For aggregates it is valid only
// after registration.
func (t *Type) Size() uintptr { return t.size }

// Align returns the native alignment. For aggregates it is valid only
// after registration.
func (t *Type) Align() uintptr { return t.align }

// Registered reports whether the layout has been computed.
func (t *Type) Registered() bool { return t.laid }

func (t *Type) describe() string {
	switch t.kind {
	case KindVoid:
		return "void"
	case KindInt:
		return fmt.Sprintf("int%d", t.bits)
	case KindUint:
		return fmt.Sprintf("uint%d", t.bits)
	case KindFloat:
		return fmt.Sprintf("float%d", t.bits)
	case KindPointer:
		if t.elem == nil {
			return "*void"
		}
		return "*" + t.elem.Name()
	case KindArray:
		return fmt.Sprintf("[%d]%s", t.length, t.elem.Name())
	case KindString:
		return "string(" + t.encoding.String() + ")"
	case KindCallback:
		params := make([]string, len(t.params))
		for i, p := range t.params {
			params[i] = p.Name()
		}
		return "callback(" + strings.Join(params, ", ") + ")"
	case KindOpaque:
		return "opaque"
	}
	return t.kind.String()
}

// Primitive singletons. Scalars and pointer-like shapes have fixed layout,
// stamped at construction so they are usable without a registry.

var (
	voidType    = &Type{kind: KindVoid, size: 0, align: 1, laid: true}
	int8Type    = scalar(KindInt, 8)
	int16Type   = scalar(KindInt, 16)
	int32Type   = scalar(KindInt, 32)
	int64Type   = scalar(KindInt, 64)
	uint8Type   = scalar(KindUint, 8)
	uint16Type  = scalar(KindUint, 16)
	uint32Type  = scalar(KindUint, 32)
	uint64Type  = scalar(KindUint, 64)
	float32Type = scalar(KindFloat, 32)
	float64Type = scalar(KindFloat, 64)
)

func scalar(k Kind, bits int) *Type {
	w := uintptr(bits / 8)
	return &Type{kind: k, bits: bits, size: w, align: w, laid: true}
}

// Void is the C void type: zero size, only meaningful as a return type
// or pointer target.
func Void() *Type { return voidType }

func Int8() *Type    { return int8Type }
func Int16() *Type   { return int16Type }
func Int32() *Type   { return int32Type }
func Int64() *Type   { return int64Type }
func Uint8() *Type   { return uint8Type }
func Uint16() *Type  { return uint16Type }
func Uint32() *Type  { return uint32Type }
func Uint64() *Type  { return uint64Type }
func Float32() *Type { return float32Type }
func Float64() *Type { return float64Type }

// PointerTo describes a typed pointer. A nil target means void*.
func PointerTo(target *Type) *Type {
	return &Type{kind: KindPointer, elem: target, size: ptrSize, align: ptrSize, laid: true}
}

// ArrayOf describes a fixed-count array. The count is what the caller
// tracked at allocation time; indexing past it is undefined.
func ArrayOf(elem *Type, count int) *Type {
	return &Type{kind: KindArray, elem: elem, length: count}
}

// StructOf describes a C struct with the given ordered fields.
func StructOf(name string, fields ...Field) *Type {
	return &Type{kind: KindStruct, name: name, fields: fields}
}

// UnionOf describes a C union: all members alias the same bytes.
func UnionOf(name string, fields ...Field) *Type {
	return &Type{kind: KindUnion, name: name, fields: fields}
}

// String describes a text string marshalled through the given encoding.
// On the wire it is one pointer-width slot.
func String(enc Encoding) *Type {
	return &Type{kind: KindString, encoding: enc, size: ptrSize, align: ptrSize, laid: true}
}

// Callback describes a native function pointer with the given signature.
func Callback(params []*Type, result *Type) *Type {
	if result == nil {
		result = voidType
	}
	return &Type{kind: KindCallback, params: params, result: result, size: ptrSize, align: ptrSize, laid: true}
}

// Opaque describes a handle representable only as a raw native pointer,
// with no accessible interior.
func Opaque(name string) *Type {
	return &Type{kind: KindOpaque, name: name, size: ptrSize, align: ptrSize, laid: true}
}
