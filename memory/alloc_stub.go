//go:build !windows && (!cgo || (!linux && !darwin && !freebsd))

package memory

func nativeAlloc(size uintptr) uintptr { return 0 }

func nativeFree(addr uintptr) {}
