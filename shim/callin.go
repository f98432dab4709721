package shim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/native-runtime/abi"
)

// CallIn generates the trampoline unit for a registered callback. The
// trampoline carries the native signature, encodes each native argument,
// and dispatches to the fixed extern for its shape with the trampoline
// context address baked in. Threadsafe trampolines hand off a packed buffer
// and return immediately; the native caller gets no result.
func (g *Generator) CallIn(sig abi.Signature, context uintptr) (string, error) {
	if err := checkSignature(sig); err != nil {
		return "", err
	}
	if err := sig.Validate(); err != nil {
		return "", err
	}

	g.reset()
	g.writePrelude(sig)

	arity := sig.Arity()
	dispatch := CallbackSymbol(arity, sig.ThreadSafe)

	switch {
	case sig.ThreadSafe:
		g.writeLine("extern void %s(void* ctx, uint64_t argc, uint64_t* args);", dispatch)
	case arity <= MaxSpecializedArity:
		g.writeLine("extern uint64_t %s(%s);", dispatch, specializedParams(arity))
	default:
		g.writeLine("extern uint64_t %s(void* ctx, uint64_t argc, uint64_t* args);", dispatch)
	}
	g.writeLine("")

	g.writeLine("%s %s(%s) {", sig.Returns.CName(), TrampolineSymbol, paramList(sig))
	g.indent++

	for i, a := range sig.Args {
		g.writeLine("ffi_value v%d = %s;", i, storeExpr(a, callinArg(a, i)))
	}

	ctx := contextLiteral(context)
	packed := sig.ThreadSafe || arity > MaxSpecializedArity

	var call string
	if packed {
		if arity > 0 {
			g.writeLine("uint64_t buf[%d];", arity)
			for i := range sig.Args {
				g.writeLine("buf[%d] = (uint64_t)v%d.bits;", i, i)
			}
			call = fmt.Sprintf("%s(%s, %d, buf)", dispatch, ctx, arity)
		} else {
			call = fmt.Sprintf("%s(%s, 0, (uint64_t*)0)", dispatch, ctx)
		}
	} else {
		words := make([]string, 0, arity+1)
		words = append(words, ctx)
		for i := range sig.Args {
			words = append(words, fmt.Sprintf("(uint64_t)v%d.bits", i))
		}
		call = dispatch + "(" + strings.Join(words, ", ") + ")"
	}

	switch {
	case sig.ThreadSafe:
		g.writeLine("%s;", call)
	case sig.Returns == abi.Void:
		g.writeLine("%s;", call)
	default:
		g.writeLine("ffi_value ret = ffi_wrap(%s);", call)
		g.writeLine("return %s;", callinReturn(sig.Returns, "ret"))
	}

	g.indent--
	g.writeLine("}")

	return g.sb.String(), nil
}

// callinReturn renders the decode of the dispatch result into the native
// return type. The trampoline returns uint32_t for U32, so the signed
// parameter narrowing does not apply here.
func callinReturn(t abi.Type, v string) string {
	if t == abi.U32 {
		return fmt.Sprintf("ffi_to_u32(%s)", v)
	}
	return loadExpr(t, v)
}

// callinArg renders the native argument expression fed to storeExpr. U32
// arrives declared as a signed parameter and is reinterpreted here.
func callinArg(t abi.Type, i int) string {
	name := "arg" + strconv.Itoa(i)
	if t == abi.U32 {
		return "(uint32_t)" + name
	}
	return name
}

func specializedParams(arity int) string {
	parts := make([]string, 0, arity+1)
	parts = append(parts, "void* ctx")
	for i := 0; i < arity; i++ {
		parts = append(parts, "uint64_t a"+strconv.Itoa(i))
	}
	return strings.Join(parts, ", ")
}

func contextLiteral(context uintptr) string {
	if context == 0 {
		return "(void*)0"
	}
	return fmt.Sprintf("(void*)0x%xULL", uint64(context))
}
