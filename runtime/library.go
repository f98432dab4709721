package runtime

import (
	"sync"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/engine"
	"github.com/wippyai/native-runtime/errors"
)

// Library is the result of one load: every requested symbol bound and
// wrapped, plus whatever backing resources the load mode acquired. A
// library from open mode holds the loader handle; one from compile mode
// holds the compiled unit its addresses point into.
type Library struct {
	closeMu sync.RWMutex
	name    string
	dl      *dlHandle
	unit    *engine.Compiled
	names   []string
	symbols map[string]*symbol
	closed  bool
}

// Name reports what the library was loaded from: a path, a source file,
// or empty for the running process.
func (l *Library) Name() string {
	return l.name
}

func (l *Library) label() string {
	if l.name == "" {
		return "library"
	}
	return "library " + l.name
}

// Symbols returns the bound symbol names in stable order.
func (l *Library) Symbols() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Definitions returns the boundary signature of every bound symbol.
func (l *Library) Definitions() map[string]abi.Signature {
	out := make(map[string]abi.Signature, len(l.symbols))
	for name, sym := range l.symbols {
		out[name] = sym.sig
	}
	return out
}

// Get returns the callable wrapper for a bound symbol.
func (l *Library) Get(name string) (*Func, error) {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed {
		return nil, errors.Closed(l.label())
	}
	sym, ok := l.symbols[name]
	if !ok {
		return nil, errors.SymbolMissing(name, l.name)
	}
	return &Func{lib: l, sym: sym}, nil
}

// Call invokes a bound symbol by name.
func (l *Library) Call(name string, args ...abi.Value) (abi.Value, error) {
	fn, err := l.Get(name)
	if err != nil {
		return abi.Undefined, err
	}
	return fn.Call(args...)
}

// Entry returns the native address of a bound symbol, suitable for
// passing to other native code as a plain function pointer.
func (l *Library) Entry(name string) (uintptr, error) {
	fn, err := l.Get(name)
	if err != nil {
		return 0, err
	}
	return fn.Entry(), nil
}

// Close releases every wrapper and the load's backing resources. Wrappers
// must not be invoked afterwards. Safe to call more than once.
func (l *Library) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var firstErr error
	for _, name := range l.names {
		if err := l.symbols[name].deinit(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.unit != nil {
		if err := l.unit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.unit = nil
	}
	if l.dl != nil {
		if err := l.dl.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.dl = nil
	}
	return firstErr
}

// Func is a callable bound symbol.
type Func struct {
	lib *Library
	sym *symbol
}

// Name returns the symbol name.
func (f *Func) Name() string {
	return f.sym.name
}

// Sig returns the boundary signature.
func (f *Func) Sig() abi.Signature {
	return f.sym.sig
}

// Entry returns the native address the wrapper forwards to.
func (f *Func) Entry() uintptr {
	return uintptr(f.sym.native)
}

// Call invokes the symbol with boundary-encoded arguments. Arguments are
// converted by declared type on the native side; the return value comes
// back encoded the same way.
func (f *Func) Call(args ...abi.Value) (abi.Value, error) {
	f.lib.closeMu.RLock()
	defer f.lib.closeMu.RUnlock()
	if f.lib.closed {
		return abi.Undefined, errors.Closed(f.lib.label())
	}
	if len(args) != f.sym.sig.Arity() {
		return abi.Undefined, errors.New(errors.PhaseCall, errors.KindBadRequest).
			Symbol(f.sym.name).
			Detail("expected %d arguments, got %d", f.sym.sig.Arity(), len(args)).
			Build()
	}

	frame := make([]uint64, 1+len(args))
	frame[0] = uint64(len(args))
	for i, a := range args {
		frame[i+1] = uint64(a)
	}
	return abi.Value(callEntry(f.sym.entry, frame)), nil
}
