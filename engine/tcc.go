package engine

/*
#cgo LDFLAGS: -ltcc -ldl

#include <stdlib.h>
#include <string.h>
#include <stdint.h>
#include <libtcc.h>

#ifndef _WIN32
#include <dlfcn.h>
#endif

extern void nativeTCCDiagnostic(uintptr_t handle, char* msg);

static void engine_error_sink(void* opaque, const char* msg) {
	nativeTCCDiagnostic((uintptr_t)opaque, (char*)msg);
}

static void engine_bind_sink(TCCState* s, uintptr_t opaque) {
	tcc_set_error_func(s, (void*)opaque, engine_error_sink);
}

// The compiler emits calls to memcpy/memmove/memset for aggregate
// assignments even in freestanding units. The dl family backs user source
// that resolves further libraries at run time. On x86 the compiler also
// emits libgcc helper calls for unsigned 64-bit <-> double conversions,
// which freestanding units cannot resolve themselves.
#if defined(__x86_64__) || defined(__i386__)
extern double __floatundidf(unsigned long long);
extern unsigned long long __fixunsdfdi(double);
extern float __floatundisf(unsigned long long);
extern unsigned long long __fixunssfdi(float);
#endif

static void engine_add_builtins(TCCState* s) {
	tcc_add_symbol(s, "memcpy", (void*)memcpy);
	tcc_add_symbol(s, "memmove", (void*)memmove);
	tcc_add_symbol(s, "memset", (void*)memset);
#ifndef _WIN32
	tcc_add_symbol(s, "dlopen", (void*)dlopen);
	tcc_add_symbol(s, "dlsym", (void*)dlsym);
	tcc_add_symbol(s, "dlclose", (void*)dlclose);
	tcc_add_symbol(s, "dlerror", (void*)dlerror);
#endif
#if defined(__x86_64__) || defined(__i386__)
	tcc_add_symbol(s, "__floatundidf", (void*)__floatundidf);
	tcc_add_symbol(s, "__fixunsdfdi", (void*)__fixunsdfdi);
	tcc_add_symbol(s, "__floatundisf", (void*)__floatundisf);
	tcc_add_symbol(s, "__fixunssfdi", (void*)__fixunssfdi);
#endif
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
)

// State wraps one in-memory compilation context. A State compiles exactly
// one translation unit; it is not safe for concurrent use and callers
// serialize whole compilations with a single mutex.
type State struct {
	tcc    *C.TCCState
	sink   *diagnosticSink
	handle cgo.Handle
	status int
}

// NewState creates a compilation context configured for in-memory output,
// with its own diagnostic sink bound through an opaque handle.
func NewState() (*State, error) {
	tcc := C.tcc_new()
	if tcc == nil {
		return nil, errors.Internal(errors.PhaseCompile, "compiler state allocation failed", nil)
	}
	s := &State{tcc: tcc, sink: &diagnosticSink{}}
	s.handle = cgo.NewHandle(s.sink)
	C.engine_bind_sink(tcc, C.uintptr_t(s.handle))
	C.tcc_set_output_type(tcc, C.TCC_OUTPUT_MEMORY)
	return s, nil
}

//export nativeTCCDiagnostic
func nativeTCCDiagnostic(handle C.uintptr_t, msg *C.char) {
	sink, ok := cgo.Handle(handle).Value().(*diagnosticSink)
	if !ok {
		return
	}
	sink.record(C.GoString(msg))
}

// note records the first negative compiler status.
func (s *State) note(rc C.int) {
	if int(rc) < 0 && s.status >= 0 {
		s.status = int(rc)
	}
}

// SetOptions passes command-line style flags to the compiler.
func (s *State) SetOptions(flags string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(flags)
	defer C.free(unsafe.Pointer(cs))
	C.tcc_set_options(s.tcc, cs)
}

// DefineSymbol adds a preprocessor define. An empty value defines the
// symbol to 1.
func (s *State) DefineSymbol(name, value string) {
	if s.tcc == nil {
		return
	}
	cn := C.CString(name)
	defer C.free(unsafe.Pointer(cn))
	if value == "" {
		C.tcc_define_symbol(s.tcc, cn, nil)
		return
	}
	cv := C.CString(value)
	defer C.free(unsafe.Pointer(cv))
	C.tcc_define_symbol(s.tcc, cn, cv)
}

// UndefineSymbol removes a preprocessor define.
func (s *State) UndefineSymbol(name string) {
	if s.tcc == nil {
		return
	}
	cn := C.CString(name)
	defer C.free(unsafe.Pointer(cn))
	C.tcc_undefine_symbol(s.tcc, cn)
}

// AddIncludePath appends a user include directory.
func (s *State) AddIncludePath(dir string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(dir)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_add_include_path(s.tcc, cs))
}

// AddSysIncludePath appends a system include directory.
func (s *State) AddSysIncludePath(dir string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(dir)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_add_sysinclude_path(s.tcc, cs))
}

// AddLibraryPath appends a library search directory.
func (s *State) AddLibraryPath(dir string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(dir)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_add_library_path(s.tcc, cs))
}

// AddLibrary links the named library into the unit.
func (s *State) AddLibrary(name string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_add_library(s.tcc, cs))
}

// AddFile compiles a source file into the unit.
func (s *State) AddFile(path string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_add_file(s.tcc, cs))
}

// CompileString compiles inline source text into the unit.
func (s *State) CompileString(src string) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(src)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_compile_string(s.tcc, cs))
}

// AddSymbol binds a host-resident address to a linkable extern name.
func (s *State) AddSymbol(name string, ptr unsafe.Pointer) {
	if s.tcc == nil {
		return
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	s.note(C.tcc_add_symbol(s.tcc, cs, ptr))
}

// AddBuiltins injects the support symbols every unit may link against:
// memcpy, memset, and the dlopen family on POSIX.
func (s *State) AddBuiltins() {
	if s.tcc == nil {
		return
	}
	C.engine_add_builtins(s.tcc)
}

// RelocateSize returns the byte count the relocated unit needs, or a
// negative value on failure.
func (s *State) RelocateSize() int {
	if s.tcc == nil {
		return -1
	}
	rc := C.tcc_relocate(s.tcc, nil)
	s.note(rc)
	return int(rc)
}

// RelocateInto writes the relocated code into buf. The caller wraps the
// write in WithWritable.
func (s *State) RelocateInto(buf *ExecBuffer) int {
	if s.tcc == nil || buf.Ptr() == nil {
		return -1
	}
	rc := C.tcc_relocate(s.tcc, buf.Ptr())
	s.note(rc)
	return int(rc)
}

// Relocate performs the two-phase relocation into a fresh executable
// buffer, writing inside a scoped writable region. The caller owns the
// returned buffer.
func (s *State) Relocate() (*ExecBuffer, error) {
	size := s.RelocateSize()
	if size <= 0 {
		// Zero-length output is a compiler-integrity failure, not an
		// allocation problem; it must not reach mmap.
		return nil, errors.RelocationFailed(fmt.Sprintf("compiler reported relocation size %d", size))
	}
	buf, err := NewExecBuffer(size)
	if err != nil {
		return nil, err
	}
	err = WithWritable(func() error {
		if s.RelocateInto(buf) < 0 {
			return errors.RelocationFailed("relocation write failed")
		}
		return nil
	})
	if err != nil {
		buf.Close()
		return nil, err
	}
	return buf, nil
}

// Symbol returns the address of an exported name in the relocated unit, or
// nil when the name is absent.
func (s *State) Symbol(name string) unsafe.Pointer {
	if s.tcc == nil {
		return nil
	}
	cs := C.CString(name)
	defer C.free(unsafe.Pointer(cs))
	return C.tcc_get_symbol(s.tcc, cs)
}

// Close releases the compiler state. Relocated buffers stay valid. Safe to
// call more than once.
func (s *State) Close() error {
	if s.tcc == nil {
		return nil
	}
	C.tcc_delete(s.tcc)
	s.tcc = nil
	if s.handle != 0 {
		s.handle.Delete()
		s.handle = 0
	}
	return nil
}
