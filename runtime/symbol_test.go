package runtime

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/engine"
)

// compileNative builds a native definition for wrapping in tests.
func compileNative(t *testing.T, src, name string) unsafe.Pointer {
	t.Helper()
	compiled, err := engine.Compile(engine.Unit{Name: "native", Source: src, Options: "-nostdlib"})
	if err != nil {
		t.Fatalf("native compile error: %v", err)
	}
	t.Cleanup(func() { compiled.Close() })

	p, err := compiled.Symbol(name)
	if err != nil {
		t.Fatalf("symbol error: %v", err)
	}
	return p
}

func mustSignature(t *testing.T, args []string, returns string, threadsafe bool) abi.Signature {
	t.Helper()
	sig, err := abi.ParseSignature(args, returns, threadsafe)
	if err != nil {
		t.Fatalf("signature error: %v", err)
	}
	return sig
}

func TestSymbol_CallOutRoundTrip(t *testing.T) {
	native := compileNative(t, "int add(int a, int b) { return a + b; }", "add")
	sym := newSymbol("add", mustSignature(t, []string{"i32", "i32"}, "i32", false), native)
	if err := sym.compileCallOut(""); err != nil {
		t.Fatalf("wrapper compile error: %v", err)
	}
	t.Cleanup(func() { sym.deinit() })

	if sym.state != stateCompiled {
		t.Fatalf("expected compiled state, got %d", sym.state)
	}

	frame := []uint64{2, uint64(abi.EncodeI32(2)), uint64(abi.EncodeI32(3))}
	out := abi.Value(callEntry(sym.entry, frame))
	if got := out.Int32(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}

func TestSymbol_RepeatCompileKeepsWrapper(t *testing.T) {
	native := compileNative(t, "int seven(void) { return 7; }", "seven")
	sym := newSymbol("seven", mustSignature(t, nil, "i32", false), native)
	if err := sym.compileCallOut(""); err != nil {
		t.Fatalf("wrapper compile error: %v", err)
	}
	t.Cleanup(func() { sym.deinit() })

	entry := sym.entry
	if err := sym.compileCallOut(""); err != nil {
		t.Fatalf("repeat compile error: %v", err)
	}
	if sym.entry != entry {
		t.Error("repeat compile should keep the existing wrapper")
	}
}

func TestSymbol_UnresolvedNativeFailsTerminally(t *testing.T) {
	sym := newSymbol("ghost_fn", mustSignature(t, nil, "void", false), nil)

	err := sym.compileCallOut("")
	if err == nil {
		t.Fatal("expected failure for unresolved native symbol")
	}
	if sym.state != stateFailed {
		t.Fatalf("expected failed state, got %d", sym.state)
	}
	if !strings.Contains(sym.diag, "ghost_fn") {
		t.Errorf("diagnostic should name the symbol: %q", sym.diag)
	}
	if !strings.Contains(err.Error(), "ghost_fn") {
		t.Errorf("error should carry the diagnostic: %v", err)
	}

	again := sym.compileCallOut("")
	if again == nil {
		t.Fatal("expected terminal failure on repeat compile")
	}
	if !strings.Contains(again.Error(), sym.diag) {
		t.Errorf("repeat error should restate the stored diagnostic: %v", again)
	}
}

func TestSymbol_CallInCompiles(t *testing.T) {
	sym := newSymbol("callback", mustSignature(t, []string{"f64"}, "void", false), nil)
	if err := sym.compileCallIn("", 0); err != nil {
		t.Fatalf("trampoline compile error: %v", err)
	}
	t.Cleanup(func() { sym.deinit() })

	if sym.entry == nil {
		t.Fatal("expected a trampoline entry")
	}
}

func TestSymbol_ThreadsafeCallInCompiles(t *testing.T) {
	sym := newSymbol("callback", mustSignature(t, []string{"u64", "u64"}, "void", true), nil)
	if err := sym.compileCallIn("", 0); err != nil {
		t.Fatalf("trampoline compile error: %v", err)
	}
	t.Cleanup(func() { sym.deinit() })

	if sym.entry == nil {
		t.Fatal("expected a trampoline entry")
	}
}

func TestSymbol_DeinitIdempotent(t *testing.T) {
	native := compileNative(t, "void nop(void) {}", "nop")
	sym := newSymbol("nop", mustSignature(t, nil, "void", false), native)
	if err := sym.compileCallOut(""); err != nil {
		t.Fatalf("wrapper compile error: %v", err)
	}

	if err := sym.deinit(); err != nil {
		t.Fatalf("deinit error: %v", err)
	}
	if err := sym.deinit(); err != nil {
		t.Fatalf("second deinit error: %v", err)
	}
}

func TestSymbol_DeinitBeforeCompile(t *testing.T) {
	sym := newSymbol("idle", mustSignature(t, nil, "void", false), nil)
	if err := sym.deinit(); err != nil {
		t.Fatalf("deinit error: %v", err)
	}
}
