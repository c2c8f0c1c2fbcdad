package types

// Kind discriminates the TypeDescriptor variant.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindString
	KindCallback
	KindOpaque
)

var kindNames = [...]string{
	KindVoid:     "void",
	KindInt:      "int",
	KindUint:     "uint",
	KindFloat:    "float",
	KindPointer:  "pointer",
	KindArray:    "array",
	KindStruct:   "struct",
	KindUnion:    "union",
	KindString:   "string",
	KindCallback: "callback",
	KindOpaque:   "opaque",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether the kind passes by value in a register-sized slot.
func (k Kind) IsScalar() bool {
	switch k {
	case KindInt, KindUint, KindFloat:
		return true
	}
	return false
}

// IsPointerLike reports whether the kind occupies exactly one pointer-width
// slot regardless of what it refers to.
func (k Kind) IsPointerLike() bool {
	switch k {
	case KindPointer, KindString, KindCallback, KindOpaque:
		return true
	}
	return false
}

// IsAggregate reports whether the kind has interior layout of its own.
func (k Kind) IsAggregate() bool {
	switch k {
	case KindArray, KindStruct, KindUnion:
		return true
	}
	return false
}
