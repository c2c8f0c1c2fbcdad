//go:build !cgo || (!linux && !darwin && !freebsd)

package call

import (
	"unsafe"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/types"
)

// preparedCIF has no content on platforms without a dispatch backend.
type preparedCIF struct {
	retComposite bool
	retSize      uintptr
}

func errNoDispatch() error {
	return errors.InvalidInput(errors.PhaseCall, "native dispatch requires cgo on linux, darwin or freebsd; this build has no dispatch backend")
}

func prepareCIF(params []Param, ret *types.Type) (preparedCIF, error) {
	return preparedCIF{}, errNoDispatch()
}

func invoke(p preparedCIF, fn uintptr, f *frame) (uint64, int, error) {
	return 0, 0, errNoDispatch()
}

func closureAlloc() (unsafe.Pointer, uintptr, error) {
	return nil, 0, errNoDispatch()
}

func closurePrep(p preparedCIF, closure unsafe.Pointer, handle uintptr, code uintptr) error {
	return errNoDispatch()
}

func closureFree(closure unsafe.Pointer) {}
