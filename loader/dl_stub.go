//go:build !windows && (!cgo || (!linux && !darwin && !freebsd))

package loader

import "fmt"

// Platforms without a dynamic loading backend still compile; every load
// fails at runtime with a clear message.

func dlOpen(path string) (uintptr, error) {
	return 0, fmt.Errorf("dynamic library loading is not supported on this platform (path %q)", path)
}

func dlSym(handle uintptr, name string) (uintptr, error) {
	return 0, fmt.Errorf("dynamic symbol lookup is not supported on this platform (symbol %q)", name)
}
