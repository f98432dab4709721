// Package runtime provides the high-level API of the native-function bridge.
//
// # Quick Start
//
//	rt := runtime.New(runtime.Config{})
//	defer rt.Close()
//
//	// Compile C source and bind its exports
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
// # Loading Modes
//
// A Request resolves its symbols in one of three modes:
//
//	Open(req)  - open a shared library by name and dlsym each symbol
//	Link(req)  - bind raw addresses; every symbol must carry Ptr
//	CC(req)    - compile a C translation unit and bind its exports
//
// Load(req) picks the mode from the request shape: a source file selects
// CC, a library selects Open, and a request where every symbol carries a
// raw address selects Link.
//
// In Open mode the library name is resolved against the configured resource
// directory first, then taken literally, then retried relative to the
// working directory; a name without an extension gets the platform
// shared-library suffix. An empty library name opens the running process
// itself.
//
// # Calling
//
// Library.Call marshals abi.Value arguments through the compiled wrapper
// for the symbol. Library.Get returns a *Func handle that skips the name
// lookup on every call. Library.Entry exposes the symbol's native address
// for passing to other native code as a plain function pointer.
//
// # Callbacks
//
// RegisterCallback compiles a native-callable trampoline around a Callable:
//
//	cb, err := rt.RegisterCallback(
//	    runtime.SymbolSpec{Args: []any{"f64"}, Returns: "void"},
//	    nativeruntime.CallableFunc(func(args []abi.Value) abi.Value {
//	        fmt.Println(args[0].Float64())
//	        return abi.Undefined
//	    }),
//	)
//
// cb.Entry() is an ordinary C function pointer: pass it to native code via
// abi.EncodePtr. Non-threadsafe callbacks dispatch into the Callable on the
// invoking thread. Threadsafe callbacks (SymbolSpec.ThreadSafe) may be
// invoked from any native thread; the trampoline copies the arguments,
// enqueues the call on the runtime's Dispatcher, and returns immediately,
// so their return type must be void.
//
// # 64-bit Values
//
// Int64/uint64 values outside the exact double range cannot be encoded
// immediately; BoxI64 and BoxU64 intern them and return a cell word, and
// UnboxI64/UnboxU64 decode cells coming back from native calls. The same
// interning backs the ffi_box/ffi_unbox helpers linked into every compiled
// wrapper.
//
// # Concurrency
//
// Requests may be issued from any goroutine; compilation is serialized on a
// single process-wide mutex because JIT write-protection is process-visible
// state. Compiled wrappers run synchronously on whichever goroutine calls
// them. There is no cancellation: compilation and symbol resolution are
// fast, uninterruptible operations.
//
// # Teardown
//
// Library.Close and Callback.Close are idempotent. Closing releases the
// relocated wrapper code, the retained compiler state of ad-hoc units, and
// the dynamic library handle; entry pointers must not be used afterwards.
// Close the Runtime last: it stops the internally-owned dispatch loop.
package runtime
