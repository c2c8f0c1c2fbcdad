//go:build (linux || darwin || freebsd) && cgo

package loader

/*
#cgo linux LDFLAGS: -ldl

#include <dlfcn.h>
#include <stdlib.h>

static void* nr_dlopen(const char* path) {
	return dlopen(path, RTLD_LAZY | RTLD_LOCAL);
}

static const char* nr_dlerror(void) {
	return dlerror();
}

// Clear dlerror, call dlsym, and return the error (if any) alongside the
// symbol. A NULL symbol value is itself a legal result for some objects,
// so dlerror is the only reliable failure signal.
static void* nr_dlsym_clear(void* h, const char* name, char** err) {
	dlerror();
	void* p = dlsym(h, name);
	char* e = dlerror();
	if (e) { if (err) *err = e; return NULL; }
	if (err) *err = NULL;
	return p;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

func dlerr() string {
	if e := C.nr_dlerror(); e != nil {
		return C.GoString(e)
	}
	return "unknown dlerror"
}

func dlOpen(path string) (uintptr, error) {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	h := C.nr_dlopen(cs)
	if h == nil {
		return 0, fmt.Errorf("dlopen(%q): %s", path, dlerr())
	}
	return uintptr(h), nil
}

func dlSym(handle uintptr, name string) (uintptr, error) {
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	var cerr *C.char
	p := C.nr_dlsym_clear(unsafe.Pointer(handle), cs, &cerr)
	if cerr != nil {
		return 0, fmt.Errorf("dlsym(%q): %s", name, C.GoString(cerr))
	}
	return uintptr(p), nil
}
