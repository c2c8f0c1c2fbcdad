package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the call pipeline the error occurred
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // library path resolution and loading
	PhaseBind     Phase = "bind"     // symbol address lookup
	PhaseRegister Phase = "register" // type registration and layout
	PhaseMarshal  Phase = "marshal"  // managed to native conversion
	PhaseCall     Phase = "call"     // native invocation
	PhaseCallback Phase = "callback" // native to managed re-entry
	PhaseMemory   Phase = "memory"   // allocation and release
)

// Kind categorizes the error
type Kind string

const (
	KindLibraryNotFound Kind = "library_not_found"
	KindSymbolNotFound  Kind = "symbol_not_found"
	KindUnsupportedType Kind = "unsupported_type"
	KindMarshalType     Kind = "marshal_type"
	KindNullDereference Kind = "null_dereference"
	KindOverflow        Kind = "overflow"
	KindAllocation      Kind = "allocation"
	KindEncoding        Kind = "encoding"
	KindInvalidInput    Kind = "invalid_input"
	KindDoubleRelease   Kind = "double_release"
)

// Error is the structured error type used throughout the engine.
// It carries enough context (attempted paths, symbol name, offending
// type) to diagnose a failure without re-running the operation.
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Library    string
	Symbol     string
	Type       string
	Detail     string
	Candidates []string // paths attempted during library resolution
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Library != "" {
		b.WriteString(" library ")
		b.WriteString(e.Library)
	}
	if e.Symbol != "" {
		b.WriteString(" symbol ")
		b.WriteString(e.Symbol)
	}
	if e.Type != "" {
		b.WriteString(" type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if len(e.Candidates) > 0 {
		b.WriteString(" (tried ")
		b.WriteString(strings.Join(e.Candidates, ", "))
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Library sets the library name or path
func (b *Builder) Library(name string) *Builder {
	b.err.Library = name
	return b
}

// Symbol sets the symbol name
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Type sets the offending type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Candidates records the paths attempted during resolution
func (b *Builder) Candidates(paths []string) *Builder {
	b.err.Candidates = paths
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the engine's core taxonomy

// LibraryNotFound reports a failed library resolution with every
// candidate path that was attempted.
func LibraryNotFound(name string, candidates []string, cause error) *Error {
	return &Error{
		Phase:      PhaseResolve,
		Kind:       KindLibraryNotFound,
		Library:    name,
		Candidates: candidates,
		Cause:      cause,
	}
}

// SymbolNotFound reports a failed symbol lookup, naming the symbol
// and the library it was sought in.
func SymbolNotFound(library, symbol string, cause error) *Error {
	return &Error{
		Phase:   PhaseBind,
		Kind:    KindSymbolNotFound,
		Library: library,
		Symbol:  symbol,
		Cause:   cause,
	}
}

// UnsupportedType reports a type with no known native representation,
// detected at registration time.
func UnsupportedType(typeName, detail string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindUnsupportedType,
		Type:   typeName,
		Detail: detail,
	}
}

// MarshalType reports a value that cannot be represented in the
// declared native type. Always raised before the native call executes.
func MarshalType(typeName string, value any, detail string) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindMarshalType,
		Type:   typeName,
		Value:  value,
		Detail: detail,
	}
}

// Overflow reports a primitive that cannot be represented losslessly
// at the declared width.
func Overflow(typeName string, value any) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindOverflow,
		Type:   typeName,
		Value:  value,
		Detail: fmt.Sprintf("value %v overflows %s", value, typeName),
	}
}

// NullDereference reports a dereference of a null typed pointer.
func NullDereference(typeName string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNullDereference,
		Type:   typeName,
		Detail: "null pointer dereference",
	}
}

// AllocationFailed reports a failed native allocation.
func AllocationFailed(size, align uintptr) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// DoubleRelease reports a second explicit release of the same block.
func DoubleRelease(addr uintptr) *Error {
	return &Error{
		Phase:  PhaseMemory,
		Kind:   KindDoubleRelease,
		Detail: fmt.Sprintf("block %#x already released", addr),
	}
}

// EncodingFailed reports a string that cannot be represented in the
// declared text encoding.
func EncodingFailed(encoding string, cause error) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindEncoding,
		Detail: fmt.Sprintf("encode as %s", encoding),
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
