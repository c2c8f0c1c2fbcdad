//go:build windows

package memory

import (
	"math"

	"golang.org/x/sys/windows"
)

func nativeAlloc(size uintptr) uintptr {
	if size == 0 {
		size = 1
	}
	// LocalAlloc takes a 32-bit byte count; refuse rather than truncate.
	if size > math.MaxUint32 {
		return 0
	}
	ptr, err := windows.LocalAlloc(windows.LMEM_FIXED|windows.LMEM_ZEROINIT, uint32(size))
	if err != nil {
		return 0
	}
	return ptr
}

func nativeFree(addr uintptr) {
	windows.LocalFree(windows.Handle(addr))
}
