// Package nativeruntime provides a calling interface from Go to native
// shared libraries.
//
// This library resolves and loads platform libraries, models C data
// layouts, and dispatches calls through the platform C ABI, including
// callbacks from native code back into Go closures.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	nativeruntime/       Root package with cross-cutting convenience entry points
//	├── loader/          Library name resolution, search paths, handle cache
//	├── types/           Type descriptors, registry and C layout engine
//	├── call/            Call sites, marshalling, dispatch, callback trampolines
//	├── memory/          Ownership-tracked native allocation and typed pointers
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Bind and call a function:
//
//	lib, err := loader.Load(&loader.Spec{Name: "m"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pow, err := call.NewSite(lib, "pow",
//	    []call.Param{{Type: types.Float64()}, {Type: types.Float64()}},
//	    types.Float64())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := pow.Call(2.0, 10.0)
//	fmt.Println(result) // 1024
//
// # Type System
//
// Declared signatures use explicit native type descriptors:
//
//   - Primitives: int8-int64, uint8-uint64, float32, float64
//   - Pointers: typed, void, and opaque handles
//   - Aggregates: struct, union, fixed array, with Embedded or
//     Referenced member storage
//   - Text: NUL-terminated strings in UTF-8, ASCII, Latin-1 or UTF-16
//   - Callbacks: native-callable closures
//
// Struct and union layouts are computed eagerly at registration with
// standard C rules, so layout errors surface before any call.
//
// # Memory Model
//
// Engine allocations default to runtime-managed: they are freed after
// the owning value becomes unreachable, never before. Retain promotes an
// allocation to explicit management when native code keeps the pointer
// past a call; Foreign memory returned by native code is never freed by
// the engine.
//
// # Platform Support
//
// Library loading and symbol resolution work on linux, darwin, freebsd
// and windows. Call dispatch and callback trampolines additionally need
// cgo and libffi, which limits them to the Unix-like platforms; a build
// without a dispatch backend fails calls with an explanatory error.
//
// # Thread Safety
//
// Libraries, call sites and type descriptors are safe for concurrent
// use. Calls execute synchronously on the calling goroutine and cannot
// be cancelled. Callbacks may arrive on any thread, concurrently; the
// registered closure must tolerate that.
package nativeruntime
