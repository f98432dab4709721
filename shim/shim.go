package shim

import (
	"fmt"
	"strings"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/errors"
)

// Generator builds C source text for one function signature at a time. It
// performs no I/O; callers hand the result to the compiler driver.
type Generator struct {
	sb     strings.Builder
	indent int
}

// NewGenerator creates a new shim generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// CallOut generates the source for an outgoing wrapper around the native
// function name. The wrapper is exported as EntrySymbol.
func CallOut(name string, sig abi.Signature) (string, error) {
	return NewGenerator().CallOut(name, sig)
}

// CallIn generates the source for a native-callable trampoline that
// dispatches into the host callback registered at context. The trampoline is
// exported as TrampolineSymbol.
func CallIn(sig abi.Signature, context uintptr) (string, error) {
	return NewGenerator().CallIn(sig, context)
}

// CallbackSymbol returns the dispatch extern a call-in unit of the given
// shape links against.
func CallbackSymbol(arity int, threadsafe bool) string {
	if threadsafe {
		return CallbackSymbolThreadsafe
	}
	if arity >= 0 && arity <= MaxSpecializedArity {
		return fmt.Sprintf("%s_%d", CallbackSymbolGeneric, arity)
	}
	return CallbackSymbolGeneric
}

func (g *Generator) reset() {
	g.sb.Reset()
	g.indent = 0
}

func (g *Generator) writeLine(format string, args ...any) {
	for i := 0; i < g.indent; i++ {
		g.sb.WriteString("\t")
	}
	fmt.Fprintf(&g.sb, format, args...)
	g.sb.WriteString("\n")
}

func (g *Generator) writePrelude(sig abi.Signature) {
	if sig.HasFloat() {
		g.writeLine("#define %s 1", floatGuard)
	}
	g.sb.WriteString(prelude)
	g.writeLine("")
}

func checkSignature(sig abi.Signature) error {
	for i, a := range sig.Args {
		if a == abi.Void {
			return errors.New(errors.PhaseGenerate, errors.KindBadRequest).
				Detail("void cannot be used as a parameter type (argument %d)", i).
				Build()
		}
	}
	return nil
}

// loadExpr returns the C expression decoding boundary value v into t.
func loadExpr(t abi.Type, v string) string {
	switch t {
	case abi.Char, abi.I8, abi.U8, abi.I16, abi.U16:
		return fmt.Sprintf("(%s)ffi_to_i32(%s)", t.CName(), v)
	case abi.I32:
		return fmt.Sprintf("ffi_to_i32(%s)", v)
	case abi.U32:
		// Declared as int32_t in parameter position; the full unsigned
		// domain is decoded first (values above INT32_MAX ride the double
		// encoding) and the bits pass through for the callee to
		// reinterpret unsigned.
		return fmt.Sprintf("(int32_t)ffi_to_u32(%s)", v)
	case abi.I64, abi.I64Fast:
		return fmt.Sprintf("ffi_to_i64(%s)", v)
	case abi.U64, abi.U64Fast:
		return fmt.Sprintf("ffi_to_u64(%s)", v)
	case abi.Double:
		return fmt.Sprintf("ffi_to_f64(%s)", v)
	case abi.Float:
		return fmt.Sprintf("ffi_to_f32(%s)", v)
	case abi.Bool:
		return fmt.Sprintf("ffi_to_bool(%s)", v)
	case abi.Pointer, abi.Function:
		return fmt.Sprintf("ffi_to_ptr(%s)", v)
	case abi.CString:
		return fmt.Sprintf("(char*)ffi_to_ptr(%s)", v)
	default:
		return fmt.Sprintf("ffi_to_ptr(%s)", v)
	}
}

// storeExpr returns the C expression encoding native expression r of type t
// into a boundary value.
func storeExpr(t abi.Type, r string) string {
	switch t {
	case abi.Char, abi.I8, abi.U8, abi.I16, abi.U16:
		return fmt.Sprintf("ffi_from_i32((int32_t)%s)", r)
	case abi.I32:
		return fmt.Sprintf("ffi_from_i32(%s)", r)
	case abi.U32:
		return fmt.Sprintf("ffi_from_u32(%s)", r)
	case abi.I64:
		// The slow variant always round-trips through the host box so the
		// full 64-bit range survives.
		return fmt.Sprintf("ffi_wrap(ffi_box_i64(%s))", r)
	case abi.I64Fast:
		return fmt.Sprintf("ffi_from_i64(%s)", r)
	case abi.U64:
		return fmt.Sprintf("ffi_wrap(ffi_box_u64(%s))", r)
	case abi.U64Fast:
		return fmt.Sprintf("ffi_from_u64(%s)", r)
	case abi.Double:
		return fmt.Sprintf("ffi_from_f64(%s)", r)
	case abi.Float:
		return fmt.Sprintf("ffi_from_f32(%s)", r)
	case abi.Bool:
		return fmt.Sprintf("ffi_from_bool(%s)", r)
	case abi.Pointer, abi.CString, abi.Function:
		return fmt.Sprintf("ffi_from_ptr((void*)%s)", r)
	default:
		return fmt.Sprintf("ffi_from_ptr((void*)%s)", r)
	}
}

// paramList renders a C parameter list in declaration position.
func paramList(sig abi.Signature) string {
	if len(sig.Args) == 0 {
		return "void"
	}
	parts := make([]string, len(sig.Args))
	for i, a := range sig.Args {
		parts[i] = fmt.Sprintf("%s arg%d", a.ParamName(), i)
	}
	return strings.Join(parts, ", ")
}
