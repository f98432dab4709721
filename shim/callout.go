package shim

import (
	"strconv"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/errors"
)

// CallOut generates the outgoing wrapper unit. The wrapper reads each
// boundary-encoded argument word from the call frame, narrows it to the
// native parameter type, invokes the target, and encodes the result. A void
// target returns the undefined sentinel.
func (g *Generator) CallOut(name string, sig abi.Signature) (string, error) {
	if name == "" {
		return "", errors.New(errors.PhaseGenerate, errors.KindBadRequest).
			Detail("call-out target needs a symbol name").
			Build()
	}
	if err := checkSignature(sig); err != nil {
		return "", err
	}

	g.reset()
	g.writePrelude(sig)

	g.writeLine("extern %s %s(%s);", sig.Returns.CName(), name, paramList(sig))
	g.writeLine("")

	g.writeLine("uint64_t %s(uint64_t* frame) {", EntrySymbol)
	g.indent++
	if len(sig.Args) > 0 {
		g.writeLine("uint64_t* args = frame + 1;")
	}
	for i, a := range sig.Args {
		g.writeLine("ffi_value v%d = ffi_wrap(args[%d]);", i, i)
		g.writeLine("%s arg%d = %s;", a.ParamName(), i, loadExpr(a, "v"+strconv.Itoa(i)))
	}

	call := name + "(" + argNames(len(sig.Args)) + ")"
	if sig.Returns == abi.Void {
		g.writeLine("%s;", call)
		g.writeLine("return (uint64_t)FFI_UNDEFINED;")
	} else {
		g.writeLine("%s r = %s;", sig.Returns.CName(), call)
		g.writeLine("ffi_value out = %s;", storeExpr(sig.Returns, "r"))
		g.writeLine("return (uint64_t)out.bits;")
	}
	g.indent--
	g.writeLine("}")

	return g.sb.String(), nil
}

func argNames(n int) string {
	if n == 0 {
		return ""
	}
	out := "arg0"
	for i := 1; i < n; i++ {
		out += ", arg" + strconv.Itoa(i)
	}
	return out
}
