package nativeruntime

import (
	"github.com/nativebind/native-runtime/call"
	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/loader"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// Load resolves and loads a library through the shared process-wide cache.
func Load(spec *loader.Spec) (*loader.Library, error) {
	return loader.Load(spec)
}

// Bind declares a call site for an exported function of lib.
func Bind(lib *loader.Library, name string, params []call.Param, ret *types.Type, opts ...call.Option) (*call.Site, error) {
	return call.NewSite(lib, name, params, ret, opts...)
}

// ExternVariable declares a typed accessor for a native global.
func ExternVariable(lib *loader.Library, symbol string, t *types.Type) (*call.ExternVar, error) {
	return call.NewExternVar(lib, symbol, t)
}

// SizeOf returns the native size of a type descriptor or of a typed
// instance's underlying type.
func SizeOf(v any) (uintptr, error) {
	switch x := v.(type) {
	case *types.Type:
		return types.SizeOf(x)
	case *memory.Composite:
		return types.SizeOf(x.Type())
	case *memory.Block:
		return x.Size(), nil
	case memory.Pointer:
		return types.SizeOf(types.PointerTo(x.Pointee()))
	}
	return 0, errors.InvalidInput(errors.PhaseRegister, "size is defined for type descriptors and native instances only")
}

// AlignOf returns the native alignment of t.
func AlignOf(t *types.Type) (uintptr, error) {
	return types.AlignOf(t)
}

// UnsafeCast reinterprets a typed pointer as pointing to a different type.
// Nothing verifies the underlying memory matches the target layout.
func UnsafeCast(target *types.Type, p memory.Pointer) memory.Pointer {
	return memory.UnsafeCast(target, p)
}

// Retain promotes a runtime-managed block to explicit management.
func Retain(b *memory.Block) *memory.Block {
	return b.Retain()
}

// RetainString encodes s into a native buffer excluded from automatic
// reclamation; release it exactly once.
func RetainString(s string, enc types.Encoding) (*call.RetainedString, error) {
	return call.RetainString(s, enc)
}
