//go:build (linux || darwin || freebsd) && cgo

package memory

/*
#include <stdlib.h>
#include <string.h>
*/
import "C"

import "unsafe"

func nativeAlloc(size uintptr) uintptr {
	if size == 0 {
		size = 1
	}
	return uintptr(C.calloc(1, C.size_t(size)))
}

func nativeFree(addr uintptr) {
	C.free(unsafe.Pointer(addr))
}
