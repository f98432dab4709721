package runtime

import (
	"runtime/cgo"

	"go.uber.org/zap"

	nativeruntime "github.com/wippyai/native-runtime"
	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/errors"
)

// trampolineContext is the state behind one registered callback: the
// managed callable, its declared signature, and the dispatcher queued
// invocations run on. Native code holds it through an opaque handle word
// baked into the trampoline.
type trampolineContext struct {
	callable   nativeruntime.Callable
	sig        abi.Signature
	dispatcher nativeruntime.Dispatcher
}

// invoke runs the callable. A panic is contained here so native code never
// unwinds through it; the invocation then yields the undefined value.
func (t *trampolineContext) invoke(args []abi.Value) (out abi.Value) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("callback panicked", zap.Any("panic", r))
			out = abi.Undefined
		}
	}()
	return t.callable.Call(args)
}

// Callback is a compiled native entry that forwards invocations to a
// managed callable.
type Callback struct {
	sym *symbol
	ctx *trampolineContext
}

// Entry returns the trampoline address: a plain C function pointer with
// the declared signature, valid until Close.
func (c *Callback) Entry() uintptr {
	return uintptr(c.sym.entry)
}

// Sig returns the declared boundary signature.
func (c *Callback) Sig() abi.Signature {
	return c.ctx.sig
}

// Close releases the trampoline code and the context handle. Native code
// must not invoke the entry afterwards. Safe to call more than once.
func (c *Callback) Close() error {
	return c.sym.deinit()
}

// RegisterCallback compiles a native trampoline that forwards to fn. The
// spec declares the boundary types; ThreadSafe selects the queued
// trampoline, which is invocable from any native thread but must return
// void. Plain trampolines run the callable directly on the invoking
// thread.
func (r *Runtime) RegisterCallback(spec SymbolSpec, fn nativeruntime.Callable) (*Callback, error) {
	if fn == nil {
		return nil, errors.NotCallable()
	}

	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return nil, errors.Closed("runtime")
	}

	sig, err := abi.NewSignature(spec.Args, spec.Returns, spec.ThreadSafe)
	if err != nil {
		return nil, err
	}

	tctx := &trampolineContext{callable: fn, sig: sig, dispatcher: r.dispatcher}
	sym := newSymbol("callback", sig, nil)
	sym.ctx = cgo.NewHandle(tctx)

	compileMu.Lock()
	err = sym.compileCallIn(r.options, uintptr(sym.ctx))
	compileMu.Unlock()
	if err != nil {
		sym.deinit()
		return nil, err
	}

	Logger().Debug("callback registered",
		zap.String("signature", sig.String()),
		zap.Bool("threadsafe", sig.ThreadSafe))
	return &Callback{sym: sym, ctx: tctx}, nil
}
