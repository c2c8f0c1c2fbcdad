// Package errors provides structured error types for the native-runtime library.
//
// Errors are categorized by Phase (where in the call pipeline the error
// occurred) and Kind (error category). The Error type includes rich context:
// library name, symbol name, offending type, attempted candidate paths, and
// a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindMarshalType).
//		Type("int32").
//		Value(1 << 40).
//		Detail("value does not fit declared width").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.LibraryNotFound("foo", candidates, cause)
//	err := errors.SymbolNotFound("libfoo.so", "frobnicate", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching via errors.Is compares Phase and Kind only, so sentinel values
// such as
//
//	&errors.Error{Phase: errors.PhaseBind, Kind: errors.KindSymbolNotFound}
//
// can be used as targets.
package errors
