package runtime

/*
#cgo LDFLAGS: -ldl

#include <stdlib.h>
#include <dlfcn.h>

static void* bridge_dlopen(const char* path, char** err) {
	void* h = dlopen(path, RTLD_LAZY | RTLD_LOCAL);
	if (h == NULL) {
		*err = (char*)dlerror();
	}
	return h;
}

static void* bridge_dlopen_self(void) {
	return dlopen(NULL, RTLD_LAZY | RTLD_LOCAL);
}

// dlsym may legitimately return NULL for a defined symbol, so the error
// state is cleared first and checked after.
static void* bridge_dlsym(void* h, const char* name, char** err) {
	dlerror();
	void* p = dlsym(h, name);
	*err = (char*)dlerror();
	return p;
}

static int bridge_dlclose(void* h) {
	return dlclose(h);
}
*/
import "C"

import (
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
)

// dlHandle wraps an open dynamic library.
type dlHandle struct {
	ptr  unsafe.Pointer
	path string
}

// dlOpen opens one shared object. Resolution follows the platform loader:
// relative paths consult the loader search path, absolute paths are taken
// as-is.
func dlOpen(path string) (*dlHandle, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var cerr *C.char
	h := C.bridge_dlopen(cpath, &cerr)
	if h == nil {
		msg := "dlopen failed"
		if cerr != nil {
			msg = C.GoString(cerr)
		}
		return nil, errors.LibraryOpen(path, msg, "dlopen", 0)
	}
	return &dlHandle{ptr: h, path: path}, nil
}

// dlOpenSelf opens the running process, exposing symbols already linked
// into it.
func dlOpenSelf() (*dlHandle, error) {
	h := C.bridge_dlopen_self()
	if h == nil {
		return nil, errors.LibraryOpen("", "dlopen of running process failed", "dlopen", 0)
	}
	return &dlHandle{ptr: h, path: ""}, nil
}

// symbol resolves name in the library, or reports it missing.
func (h *dlHandle) symbol(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var cerr *C.char
	p := C.bridge_dlsym(h.ptr, cname, &cerr)
	if cerr != nil {
		where := h.path
		if where == "" {
			where = "the running process"
		}
		return nil, errors.SymbolMissing(name, where)
	}
	return p, nil
}

func (h *dlHandle) close() error {
	if h.ptr == nil {
		return nil
	}
	rc := C.bridge_dlclose(h.ptr)
	h.ptr = nil
	if rc != 0 {
		return errors.New(errors.PhaseClose, errors.KindLibraryOpen).
			Path(h.path).
			Detail("dlclose returned failure").
			Build()
	}
	return nil
}
