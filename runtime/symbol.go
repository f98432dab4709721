package runtime

import (
	"runtime/cgo"
	"unsafe"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/engine"
	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/shim"
)

type symbolState uint8

const (
	statePending symbolState = iota
	stateCompiled
	stateFailed
)

// symbol is one bound native function: the boundary signature, the native
// address calls forward to, and the compiled wrapper adapting between the
// two calling conventions. Compilation failure is terminal; the first
// diagnostic is kept and reported on every later attempt.
type symbol struct {
	name   string
	sig    abi.Signature
	native unsafe.Pointer

	state symbolState
	code  *engine.ExecBuffer
	entry unsafe.Pointer
	diag  string
	ctx   cgo.Handle
}

func newSymbol(name string, sig abi.Signature, native unsafe.Pointer) *symbol {
	return &symbol{name: name, sig: sig, native: native}
}

// compileSpec describes one wrapper compilation: the generated source, the
// native symbols bound after compiling, and the entry to extract.
type compileSpec struct {
	source  string
	binds   map[string]unsafe.Pointer
	entry   string
	unit    string
	options string
}

// compileShim runs one wrapper through the embedded compiler: support
// symbols in, source compiled, bound symbols attached, code relocated, the
// fixed entry extracted. The state is closed before returning; extracted
// addresses stay valid for the life of the code buffer. Callers hold the
// process-wide compile lock.
func (s *symbol) compileShim(cs compileSpec) error {
	switch s.state {
	case stateCompiled:
		return nil
	case stateFailed:
		return s.failure()
	}

	st, err := engine.NewState()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := "-nostdlib"
	if cs.options != "" {
		opts += " " + cs.options
	}
	st.SetOptions(opts)
	bindSupport(st)

	st.CompileString(cs.source)
	if st.Failed() {
		return s.fail(firstDiag(st), st.Err(cs.unit))
	}

	for name, ptr := range cs.binds {
		if ptr == nil {
			continue
		}
		st.AddSymbol(name, ptr)
	}

	code, err := st.Relocate()
	if err != nil {
		if st.Failed() {
			return s.fail(firstDiag(st), st.Err(cs.unit))
		}
		return s.fail(err.Error(), err)
	}

	entry := st.Symbol(cs.entry)
	if entry == nil {
		code.Close()
		e := errors.SymbolMissing(cs.entry, cs.unit)
		return s.fail(e.Error(), e)
	}

	s.code = code
	s.entry = entry
	s.state = stateCompiled
	return nil
}

func (s *symbol) fail(diag string, err error) error {
	s.state = stateFailed
	s.diag = diag
	return err
}

// failure reports the diagnostic stored when the symbol first failed.
func (s *symbol) failure() error {
	return errors.New(errors.PhaseCompile, errors.KindDiagnostics).
		Symbol(s.name).
		Detail("%s", s.diag).
		Build()
}

func firstDiag(st *engine.State) string {
	if d := st.Diagnostics(); len(d) > 0 {
		return d[0]
	}
	return engine.FallbackDiagnostic
}

// compileCallOut builds the call-out wrapper for s, binding the native
// address under the symbol's own name. A nil native address is left
// unbound so relocation reports it as undefined.
func (s *symbol) compileCallOut(options string) error {
	src, err := shim.CallOut(s.name, s.sig)
	if err != nil {
		return err
	}
	return s.compileShim(compileSpec{
		source:  src,
		binds:   map[string]unsafe.Pointer{s.name: s.native},
		entry:   shim.EntrySymbol,
		unit:    s.name,
		options: options,
	})
}

// compileCallIn builds the trampoline wrapper for a callback, binding the
// dispatch entry matching the signature's shape.
func (s *symbol) compileCallIn(options string, handle uintptr) error {
	src, err := shim.CallIn(s.sig, handle)
	if err != nil {
		return err
	}
	dispatch := shim.CallbackSymbol(s.sig.Arity(), s.sig.ThreadSafe)
	return s.compileShim(compileSpec{
		source:  src,
		binds:   map[string]unsafe.Pointer{dispatch: dispatchAddress(s.sig.Arity(), s.sig.ThreadSafe)},
		entry:   shim.TrampolineSymbol,
		unit:    "callback",
		options: options,
	})
}

// deinit releases the compiled wrapper and, for callbacks, the context
// handle. Safe to call more than once; a failed symbol keeps its
// diagnostic.
func (s *symbol) deinit() error {
	var err error
	if s.code != nil {
		err = s.code.Close()
		s.code = nil
	}
	s.entry = nil
	s.native = nil
	if s.ctx != 0 {
		s.ctx.Delete()
		s.ctx = 0
	}
	return err
}
