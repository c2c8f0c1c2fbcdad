// Package call binds native function symbols to typed call sites and
// dispatches invocations through libffi.
//
// A Site pairs a loaded library, a symbol name and a declared signature.
// The symbol address resolves on first invocation, exactly once for the
// site's lifetime; concurrent first calls are serialized and all observe
// the single cached address.
//
//	site, err := call.NewSite(lib, "pow",
//		[]call.Param{{Type: types.Float64()}, {Type: types.Float64()}},
//		types.Float64())
//	v, err := site.Call(2.0, 10.0)
//
// Arguments are validated and converted before the native call executes:
// a marshalling failure means native code never ran, and there is no
// partially-applied state to unwind. Primitives are checked for lossless
// representation at the declared width. Composites pass by address and
// are never copied on the way in; by-value struct returns land in fresh
// runtime-managed memory.
//
// Calls are synchronous and run on the calling goroutine's thread. They
// cannot be cancelled and may block indefinitely; a crash inside native
// code takes the process down. The callee's errno is sampled immediately
// after each return and exposed on the site.
//
// Trampoline exposes a managed closure as a native code address. Native
// code may invoke it from any thread at any time, so closures must be
// safe for concurrent invocation. Extern globals bind through ExternVar
// with the same once-only resolution as call sites.
//
// Dispatch requires cgo and libffi, available on linux, darwin and
// freebsd. Other builds, Windows with cgo included, can load libraries
// and resolve symbols but fail every Call with an explanatory error.
package call
