//go:build (linux || darwin || freebsd) && cgo

package call

/*
#include <stdint.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

//export nrTrampolineInvoke
func nrTrampolineInvoke(ret unsafe.Pointer, args *unsafe.Pointer, nargs C.int, handle C.uintptr_t) {
	st := cgo.Handle(handle).Value().(*trampolineState)

	addrs := make([]uintptr, int(nargs))
	if nargs > 0 {
		view := unsafe.Slice(args, int(nargs))
		for i, p := range view {
			addrs[i] = uintptr(p)
		}
	}
	st.dispatch(uintptr(ret), addrs)
}
