// Package types implements the engine's type registry and layout engine.
//
// A Type is a tagged variant over the shapes a C ABI can express: sized
// integers and floats, typed pointers, fixed-count arrays, structs, unions,
// encoded text strings, callback function pointers, and opaque handles.
// Composite layout (field offsets, total size, alignment) is computed once,
// at registration, using the same alignment and padding rules a native C
// compiler applies.
//
// Struct fields carry a storage mode: Embedded fields inline their full
// nested layout, Referenced fields contribute a single pointer-width slot
// no matter how complex the pointee is.
//
//	point := types.StructOf("point",
//		types.Field{Name: "x", Type: types.Int32()},
//		types.Field{Name: "y", Type: types.Int32()},
//	)
//	reg := types.NewRegistry()
//	point, err := reg.Register("point", point)
//
// Types with no registrable member (void members, negative array counts,
// recursively embedded aggregates) are rejected at registration with an
// UnsupportedType error, never at call time.
package types
