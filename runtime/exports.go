package runtime

/*
#include <stdint.h>

// Prototypes for the exported dispatch and boxing entry points below. The
// address helpers hand these symbols to the compiler driver so generated
// wrappers can link against them; generated code passes the context word as
// void*, which matches uintptr_t at the calling convention level.
extern uint64_t FFI_Callback_call(uintptr_t handle, uint64_t argc, uint64_t* argv);
extern uint64_t FFI_Callback_call_0(uintptr_t handle);
extern uint64_t FFI_Callback_call_1(uintptr_t handle, uint64_t a0);
extern uint64_t FFI_Callback_call_2(uintptr_t handle, uint64_t a0, uint64_t a1);
extern uint64_t FFI_Callback_call_3(uintptr_t handle, uint64_t a0, uint64_t a1, uint64_t a2);
extern uint64_t FFI_Callback_call_4(uintptr_t handle, uint64_t a0, uint64_t a1, uint64_t a2, uint64_t a3);
extern uint64_t FFI_Callback_call_5(uintptr_t handle, uint64_t a0, uint64_t a1, uint64_t a2, uint64_t a3, uint64_t a4);
extern uint64_t FFI_Callback_call_6(uintptr_t handle, uint64_t a0, uint64_t a1, uint64_t a2, uint64_t a3, uint64_t a4, uint64_t a5);
extern uint64_t FFI_Callback_call_7(uintptr_t handle, uint64_t a0, uint64_t a1, uint64_t a2, uint64_t a3, uint64_t a4, uint64_t a5, uint64_t a6);
extern void FFI_Callback_threadsafe_call(uintptr_t handle, uint64_t argc, uint64_t* argv);
extern uint64_t ffi_box_i64(int64_t n);
extern uint64_t ffi_box_u64(uint64_t n);
extern int64_t ffi_unbox_i64(uint64_t word);
extern uint64_t ffi_unbox_u64(uint64_t word);

static void* bridge_dispatch_addr(int arity, int threadsafe) {
	if (threadsafe) {
		return (void*)FFI_Callback_threadsafe_call;
	}
	switch (arity) {
	case 0: return (void*)FFI_Callback_call_0;
	case 1: return (void*)FFI_Callback_call_1;
	case 2: return (void*)FFI_Callback_call_2;
	case 3: return (void*)FFI_Callback_call_3;
	case 4: return (void*)FFI_Callback_call_4;
	case 5: return (void*)FFI_Callback_call_5;
	case 6: return (void*)FFI_Callback_call_6;
	case 7: return (void*)FFI_Callback_call_7;
	default: return (void*)FFI_Callback_call;
	}
}

static void* bridge_box_i64_addr(void)   { return (void*)ffi_box_i64; }
static void* bridge_box_u64_addr(void)   { return (void*)ffi_box_u64; }
static void* bridge_unbox_i64_addr(void) { return (void*)ffi_unbox_i64; }
static void* bridge_unbox_u64_addr(void) { return (void*)ffi_unbox_u64; }
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/engine"
	"github.com/wippyai/native-runtime/shim"
)

// dispatchAddress returns the host-resident dispatch entry a call-in unit
// of the given shape links against, pairing shim.CallbackSymbol.
func dispatchAddress(arity int, threadsafe bool) unsafe.Pointer {
	ts := C.int(0)
	if threadsafe {
		ts = 1
	}
	return C.bridge_dispatch_addr(C.int(arity), ts)
}

// bindSupport injects the support symbols every generated wrapper may link
// against: the driver built-ins plus the 64-bit boxing helpers.
func bindSupport(st *engine.State) {
	st.AddBuiltins()
	st.AddSymbol(shim.BoxI64Symbol, C.bridge_box_i64_addr())
	st.AddSymbol(shim.BoxU64Symbol, C.bridge_box_u64_addr())
	st.AddSymbol(shim.UnboxI64Symbol, C.bridge_unbox_i64_addr())
	st.AddSymbol(shim.UnboxU64Symbol, C.bridge_unbox_u64_addr())
}

// contextFor resolves the trampoline context behind a handle word. A stale
// handle (native code invoking a trampoline after teardown) resolves to nil
// rather than panicking.
func contextFor(handle uintptr) (t *trampolineContext) {
	if handle == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("callback invoked after teardown",
				zap.Uintptr("handle", handle))
			t = nil
		}
	}()
	t, _ = cgo.Handle(handle).Value().(*trampolineContext)
	return t
}

// packedArgs copies argc boundary words out of a native argument buffer.
// The buffer lives on the native caller's stack and is dead once the
// dispatch entry returns, so the copy is mandatory.
func packedArgs(argv *C.uint64_t, argc int) []abi.Value {
	if argc == 0 || argv == nil {
		return nil
	}
	words := unsafe.Slice((*uint64)(unsafe.Pointer(argv)), argc)
	args := make([]abi.Value, argc)
	for i, w := range words {
		args[i] = abi.Value(w)
	}
	return args
}

func dispatchDirect(handle uintptr, args []abi.Value) C.uint64_t {
	t := contextFor(handle)
	if t == nil {
		return C.uint64_t(abi.Undefined)
	}
	return C.uint64_t(t.invoke(args))
}

func dispatchWords(handle C.uintptr_t, words ...uint64) C.uint64_t {
	args := make([]abi.Value, len(words))
	for i, w := range words {
		args[i] = abi.Value(w)
	}
	return dispatchDirect(uintptr(handle), args)
}

//export FFI_Callback_call
func FFI_Callback_call(handle C.uintptr_t, argc C.uint64_t, argv *C.uint64_t) C.uint64_t {
	return dispatchDirect(uintptr(handle), packedArgs(argv, int(argc)))
}

//export FFI_Callback_call_0
func FFI_Callback_call_0(handle C.uintptr_t) C.uint64_t {
	return dispatchWords(handle)
}

//export FFI_Callback_call_1
func FFI_Callback_call_1(handle C.uintptr_t, a0 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0))
}

//export FFI_Callback_call_2
func FFI_Callback_call_2(handle C.uintptr_t, a0, a1 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0), uint64(a1))
}

//export FFI_Callback_call_3
func FFI_Callback_call_3(handle C.uintptr_t, a0, a1, a2 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0), uint64(a1), uint64(a2))
}

//export FFI_Callback_call_4
func FFI_Callback_call_4(handle C.uintptr_t, a0, a1, a2, a3 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0), uint64(a1), uint64(a2), uint64(a3))
}

//export FFI_Callback_call_5
func FFI_Callback_call_5(handle C.uintptr_t, a0, a1, a2, a3, a4 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0), uint64(a1), uint64(a2), uint64(a3), uint64(a4))
}

//export FFI_Callback_call_6
func FFI_Callback_call_6(handle C.uintptr_t, a0, a1, a2, a3, a4, a5 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0), uint64(a1), uint64(a2), uint64(a3), uint64(a4), uint64(a5))
}

//export FFI_Callback_call_7
func FFI_Callback_call_7(handle C.uintptr_t, a0, a1, a2, a3, a4, a5, a6 C.uint64_t) C.uint64_t {
	return dispatchWords(handle, uint64(a0), uint64(a1), uint64(a2), uint64(a3), uint64(a4), uint64(a5), uint64(a6))
}

//export FFI_Callback_threadsafe_call
func FFI_Callback_threadsafe_call(handle C.uintptr_t, argc C.uint64_t, argv *C.uint64_t) {
	t := contextFor(uintptr(handle))
	if t == nil {
		return
	}
	args := packedArgs(argv, int(argc))
	t.dispatcher.Enqueue(func() {
		t.invoke(args)
	})
}

//export ffi_box_i64
func ffi_box_i64(n C.int64_t) C.uint64_t {
	return C.uint64_t(boxI64(int64(n)))
}

//export ffi_box_u64
func ffi_box_u64(n C.uint64_t) C.uint64_t {
	return C.uint64_t(boxU64(uint64(n)))
}

//export ffi_unbox_i64
func ffi_unbox_i64(word C.uint64_t) C.int64_t {
	return C.int64_t(unboxI64(uint64(word)))
}

//export ffi_unbox_u64
func ffi_unbox_u64(word C.uint64_t) C.uint64_t {
	return C.uint64_t(unboxU64(uint64(word)))
}
