// Package memory coordinates ownership of native allocations and provides
// typed pointer operations over native memory.
//
// Every engine-allocated block carries an ownership tag:
//
//   - RuntimeManaged: freed automatically once the owning Block becomes
//     unreachable. Timing is whatever the Go runtime chooses; the only
//     guarantee is that release never happens before unreachability.
//   - ExplicitlyManaged: produced by Retain or AllocExplicit. The engine
//     never frees it; release happens exactly once, through Release or by
//     native code taking over the allocation.
//   - Foreign: memory the engine did not allocate, wrapped from a native
//     return value. Never freed by the engine under any circumstance.
//
// The default tag is safe for calls that do not retain arguments past
// return. Retaining memory beyond a call requires the explicit opt-in, and
// mismanaging that (double free, retained-then-collected buffer) is a
// documented hazard this package makes explicit but cannot prevent.
//
// Typed pointers move by the pointee's native size, never by one raw byte,
// and dereferencing a null typed pointer yields a NullDereference error.
// UnsafeCast reinterprets an address as a different type with no
// verification; a mismatch is undefined behavior, not a catchable error.
package memory
