//go:build (linux || darwin || freebsd) && cgo

package call

/*
#cgo pkg-config: libffi
#cgo linux LDFLAGS: -ldl

#include <ffi.h>
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <errno.h>

// Single entry for every dispatch: errno is cleared going in and sampled
// immediately on the way out, before any Go runtime code can disturb it.
static int nr_call(ffi_cif *cif, void *fn, void **avalue, void *rvalue) {
	errno = 0;
	ffi_call(cif, FFI_FN(fn), rvalue, avalue);
	return errno;
}

extern void nrTrampolineInvoke(void *ret, void **args, int nargs, uintptr_t handle);

static void nr_closure_entry(ffi_cif *cif, void *ret, void **args, void *user) {
	nrTrampolineInvoke(ret, args, (int)cif->nargs, (uintptr_t)user);
}

static void *nr_closure_alloc(void **code) {
	return ffi_closure_alloc(sizeof(ffi_closure), code);
}

static int nr_closure_prep(ffi_cif *cif, void *closure, uintptr_t user, void *code) {
	return ffi_prep_closure_loc((ffi_closure *)closure, cif, nr_closure_entry, (void *)user, code);
}

static void nr_closure_free(void *closure) {
	ffi_closure_free(closure);
}
*/
import "C"

import (
	"unsafe"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// preparedCIF is a libffi call descriptor, prepared once per call site and
// immutable afterwards. Its C allocations live as long as the process; a
// site is bound for the lifetime of the library it points into.
type preparedCIF struct {
	cif          *C.ffi_cif
	retComposite bool
	retSize      uintptr
}

// scalarFFIType maps a primitive descriptor onto libffi's built-in types.
func scalarFFIType(t *types.Type) (*C.ffi_type, error) {
	switch t.Kind() {
	case types.KindInt:
		switch t.Bits() {
		case 8:
			return &C.ffi_type_sint8, nil
		case 16:
			return &C.ffi_type_sint16, nil
		case 32:
			return &C.ffi_type_sint32, nil
		case 64:
			return &C.ffi_type_sint64, nil
		}
	case types.KindUint:
		switch t.Bits() {
		case 8:
			return &C.ffi_type_uint8, nil
		case 16:
			return &C.ffi_type_uint16, nil
		case 32:
			return &C.ffi_type_uint32, nil
		case 64:
			return &C.ffi_type_uint64, nil
		}
	case types.KindFloat:
		switch t.Bits() {
		case 32:
			return &C.ffi_type_float, nil
		case 64:
			return &C.ffi_type_double, nil
		}
	}
	return nil, errors.UnsupportedType(t.Name(), "no native dispatch representation")
}

// paramFFIType maps a parameter slot. Composites travel by address, so
// everything non-scalar collapses to a pointer.
func paramFFIType(t *types.Type, dir Direction) (*C.ffi_type, error) {
	if dir != In {
		return &C.ffi_type_pointer, nil
	}
	switch t.Kind() {
	case types.KindInt, types.KindUint, types.KindFloat:
		return scalarFFIType(t)
	case types.KindPointer, types.KindString, types.KindCallback, types.KindOpaque,
		types.KindStruct, types.KindUnion, types.KindArray:
		return &C.ffi_type_pointer, nil
	}
	return nil, errors.UnsupportedType(t.Name(), "no native dispatch representation")
}

// compositeFFIType builds a libffi struct descriptor for a by-value
// struct return, flattening embedded arrays and recursing into embedded
// structs the way the ABI does. Unions have no libffi representation and
// are rejected here.
func compositeFFIType(t *types.Type) (*C.ffi_type, error) {
	if t.Kind() != types.KindStruct {
		return nil, errors.UnsupportedType(t.Name(), "only structs can be returned by value")
	}

	var elems []*C.ffi_type
	for _, f := range t.Fields() {
		if f.Mode == types.Referenced {
			elems = append(elems, &C.ffi_type_pointer)
			continue
		}
		switch f.Type.Kind() {
		case types.KindInt, types.KindUint, types.KindFloat:
			ft, err := scalarFFIType(f.Type)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ft)
		case types.KindPointer, types.KindString, types.KindCallback, types.KindOpaque:
			elems = append(elems, &C.ffi_type_pointer)
		case types.KindStruct:
			ft, err := compositeFFIType(f.Type)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ft)
		case types.KindArray:
			// libffi structs have no array member form; repeat the
			// element type once per slot instead.
			et, err := scalarOrPointerFFIType(f.Type.Elem())
			if err != nil {
				return nil, err
			}
			for i := 0; i < f.Type.Len(); i++ {
				elems = append(elems, et)
			}
		default:
			return nil, errors.UnsupportedType(f.Type.Name(), "unsupported member in by-value return")
		}
	}

	arr := (**C.ffi_type)(C.malloc(C.size_t(len(elems)+1) * C.size_t(unsafe.Sizeof(uintptr(0)))))
	view := unsafe.Slice(arr, len(elems)+1)
	copy(view, elems)
	view[len(elems)] = nil

	ft := (*C.ffi_type)(C.malloc(C.sizeof_ffi_type))
	ft.size = 0
	ft.alignment = 0
	ft._type = C.FFI_TYPE_STRUCT
	ft.elements = arr
	return ft, nil
}

func scalarOrPointerFFIType(t *types.Type) (*C.ffi_type, error) {
	switch t.Kind() {
	case types.KindInt, types.KindUint, types.KindFloat:
		return scalarFFIType(t)
	case types.KindPointer, types.KindString, types.KindCallback, types.KindOpaque:
		return &C.ffi_type_pointer, nil
	}
	return nil, errors.UnsupportedType(t.Name(), "unsupported member in by-value return")
}

func returnFFIType(t *types.Type) (*C.ffi_type, bool, uintptr, error) {
	switch t.Kind() {
	case types.KindVoid:
		return &C.ffi_type_void, false, 0, nil
	case types.KindInt, types.KindUint, types.KindFloat:
		ft, err := scalarFFIType(t)
		return ft, false, 0, err
	case types.KindPointer, types.KindString, types.KindCallback, types.KindOpaque:
		return &C.ffi_type_pointer, false, 0, nil
	case types.KindStruct:
		ft, err := compositeFFIType(t)
		if err != nil {
			return nil, false, 0, err
		}
		size, err := types.SizeOf(t)
		if err != nil {
			return nil, false, 0, err
		}
		return ft, true, size, nil
	case types.KindUnion:
		return nil, false, 0, errors.UnsupportedType(t.Name(), "unions cannot be returned by value")
	}
	return nil, false, 0, errors.UnsupportedType(t.Name(), "no native dispatch representation")
}

// prepareCIF builds the immutable libffi descriptor for a signature.
func prepareCIF(params []Param, ret *types.Type) (preparedCIF, error) {
	rt, composite, retSize, err := returnFFIType(ret)
	if err != nil {
		return preparedCIF{}, err
	}

	n := len(params)
	var atypes **C.ffi_type
	if n > 0 {
		atypes = (**C.ffi_type)(C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(uintptr(0)))))
		view := unsafe.Slice(atypes, n)
		for i, p := range params {
			ft, err := paramFFIType(p.Type, p.Dir)
			if err != nil {
				C.free(unsafe.Pointer(atypes))
				return preparedCIF{}, err
			}
			view[i] = ft
		}
	}

	cif := (*C.ffi_cif)(C.malloc(C.sizeof_ffi_cif))
	if status := C.ffi_prep_cif(cif, C.FFI_DEFAULT_ABI, C.uint(n), rt, atypes); status != C.FFI_OK {
		C.free(unsafe.Pointer(cif))
		if atypes != nil {
			C.free(unsafe.Pointer(atypes))
		}
		return preparedCIF{}, errors.New(errors.PhaseBind, errors.KindUnsupportedType).
			Detail("libffi rejected the signature (status %d)", int(status)).
			Build()
	}
	return preparedCIF{cif: cif, retComposite: composite, retSize: retSize}, nil
}

// invoke dispatches one prepared call. Slot and argv storage is
// C-allocated per call so libffi never sees a Go pointer.
func invoke(p preparedCIF, fn uintptr, f *frame) (uint64, int, error) {
	n := len(f.words)
	nAux := len(f.aux)
	total := n + nAux + 1 // trailing slot holds a scalar return

	raw := C.malloc(C.size_t(total * 8))
	if raw == nil {
		return 0, 0, errors.AllocationFailed(uintptr(total*8), 8)
	}
	defer C.free(raw)
	C.memset(raw, 0, C.size_t(total*8))
	slots := unsafe.Slice((*uint64)(raw), total)
	copy(slots, f.words)

	// Out/inout parameters get their own width slot; the argument slot
	// carries its address.
	for j, a := range f.aux {
		aux := n + j
		slots[aux] = a.seed
		slots[a.arg] = uint64(uintptr(unsafe.Pointer(&slots[aux])))
	}

	var argv *unsafe.Pointer
	if n > 0 {
		argvMem := C.malloc(C.size_t(n) * C.size_t(unsafe.Sizeof(uintptr(0))))
		if argvMem == nil {
			return 0, 0, errors.AllocationFailed(uintptr(n)*unsafe.Sizeof(uintptr(0)), 8)
		}
		defer C.free(argvMem)
		argv = (*unsafe.Pointer)(argvMem)
		view := unsafe.Slice(argv, n)
		for i := range view {
			view[i] = unsafe.Pointer(&slots[i])
		}
	}

	var rvalue unsafe.Pointer
	if p.retComposite {
		blk, err := memory.Alloc(p.retSize)
		if err != nil {
			return 0, 0, err
		}
		f.ret = blk
		rvalue = unsafe.Pointer(blk.Addr())
	} else {
		rvalue = unsafe.Pointer(&slots[total-1])
	}

	errno := int(C.nr_call(p.cif, unsafe.Pointer(fn), argv, rvalue))

	// Copy aux slots back for the write-back pass.
	for j, a := range f.aux {
		f.words[a.arg] = slots[n+j]
	}
	return slots[total-1], errno, nil
}

// closureAlloc reserves an executable trampoline page.
func closureAlloc() (closure unsafe.Pointer, code uintptr, err error) {
	var codePtr unsafe.Pointer
	closure = C.nr_closure_alloc(&codePtr)
	if closure == nil {
		return nil, 0, errors.AllocationFailed(0, 0)
	}
	return closure, uintptr(codePtr), nil
}

// closurePrep binds a prepared signature and a handle to the trampoline.
func closurePrep(p preparedCIF, closure unsafe.Pointer, handle uintptr, code uintptr) error {
	if status := C.nr_closure_prep(p.cif, closure, C.uintptr_t(handle), unsafe.Pointer(code)); status != C.FFI_OK {
		return errors.New(errors.PhaseCallback, errors.KindUnsupportedType).
			Detail("libffi rejected the closure (status %d)", int(status)).
			Build()
	}
	return nil
}

func closureFree(closure unsafe.Pointer) {
	C.nr_closure_free(closure)
}
