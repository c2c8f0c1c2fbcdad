// Package loader resolves logical library references to loadable files and
// caches one OS handle per distinct resolved path for the process lifetime.
//
// A bare name is expanded through the platform naming convention
// ("m" becomes "libm.so", "libm.dylib" or "m.dll") with an optional version
// token appended as a suffix on ELF platforms, then searched along the
// platform's library path environment variable and the conventional system
// directories. A reference that already names a complete file is used
// verbatim.
//
//	lib, err := loader.Load(&loader.Spec{Name: "m", Version: "6"})
//	addr, err := lib.Symbol("pow")
//
// Resolution failures carry every candidate path that was attempted.
// Concurrent first-time loads of the same path are serialized per cache
// slot, so each path is opened at most once. Handles are never closed;
// teardown happens at process exit.
package loader
