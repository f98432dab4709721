// Package nativeruntime provides a dynamic bridge to native C-ABI functions.
//
// The bridge lets Go code call arbitrary native functions from a shared
// library, a raw address, or freshly compiled C source, and lets native code
// call back into Go, without any pre-existing static binding. It works by
// generating a small C marshaling wrapper per function signature, compiling
// it with an in-process C compiler, relocating the result into executable
// memory, and exposing the entry pointer as a callable value.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	nativeruntime/       Root package with Callable, Dispatcher, and View
//	├── runtime/         High-level API: requests, libraries, callbacks
//	├── engine/          Embedded C compiler driver and executable memory
//	├── shim/            C source generation for call-out and call-in wrappers
//	├── abi/             Boundary type system and NaN-boxed value encoding
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Compile C source and call it:
//
//	rt := runtime.New(runtime.Config{})
//	defer rt.Close()
//
//	lib, err := rt.CC(&runtime.Request{
//	    Source: "add.c",
//	    Symbols: map[string]runtime.SymbolSpec{
//	        "add": {Args: []any{"i32", "i32"}, Returns: "i32"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Close()
//
//	out, err := lib.Call("add", abi.EncodeI32(2), abi.EncodeI32(3))
//	fmt.Println(out.Int32()) // 5
//
// Open a shared library instead with rt.Open, or bind raw addresses with
// rt.Link. Register a Go callback reachable from native code with
// rt.RegisterCallback; its entry pointer can be passed to native functions
// as an ordinary function-pointer argument.
//
// # Value Encoding
//
// Arguments and results cross the boundary as abi.Value words, a NaN-boxed
// 64-bit encoding shared bit for bit with the generated C wrappers. Small
// integers, doubles, booleans, null, and pointers are immediate; 64-bit
// integers beyond the exact double range round-trip through host-resident
// boxing helpers linked into every wrapper.
//
// # Thread Safety
//
// Compilation is serialized internally; requests may be issued from any
// goroutine. Compiled callables execute on whichever goroutine invokes them.
// Callbacks registered without the threadsafe flag must only be invoked by
// native code on the thread that owns the runtime's state; threadsafe
// callbacks may be invoked from any native thread and are dispatched onto
// the runtime's queue, fire and forget.
//
// # Resource Management
//
// Always close libraries and callbacks when done. Closing releases the
// relocated code, the compiler state kept for ad-hoc units, and any dynamic
// library handle. Entry pointers must not be used after close.
//
// This module requires cgo, libtcc, and a POSIX platform.
package nativeruntime
