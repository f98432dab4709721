package engine

import (
	stderrors "errors"
	"strings"
	"testing"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
)

func TestCompile_Simple(t *testing.T) {
	unit, err := Compile(Unit{
		Name:    "add.c",
		Source:  "int add(int a, int b) { return a + b; }\n",
		Options: "-nostdlib",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer unit.Close()

	if unit.Code().Len() <= 0 {
		t.Error("relocated unit should have code")
	}
	p, err := unit.Symbol("add")
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if p == nil {
		t.Error("symbol address is nil")
	}
	if _, err := unit.Symbol("subtract"); err == nil {
		t.Error("absent symbol should fail")
	}
}

func TestCompile_StructCopyLinksBuiltins(t *testing.T) {
	unit, err := Compile(Unit{
		Name: "copy.c",
		Source: "typedef struct { char data[64]; } blob;\n" +
			"void copy_blob(blob* dst, blob* src) { *dst = *src; }\n",
		Options: "-nostdlib",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer unit.Close()
	if _, err := unit.Symbol("copy_blob"); err != nil {
		t.Fatalf("Symbol: %v", err)
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	_, err := Compile(Unit{
		Name:    "broken.c",
		Source:  "int broken(\n",
		Options: "-nostdlib",
	})
	if err == nil {
		t.Fatal("expected a compile error")
	}
	var compileErr *errors.CompileError
	if !stderrors.As(err, &compileErr) {
		t.Fatalf("error type = %T: %v", err, err)
	}
	if compileErr.Unit != "broken.c" {
		t.Errorf("unit = %q", compileErr.Unit)
	}
	if len(compileErr.Diagnostics) == 0 {
		t.Error("expected at least one diagnostic")
	}
}

func TestCompile_UndefinedSymbol(t *testing.T) {
	_, err := Compile(Unit{
		Name:    "undef.c",
		Source:  "extern int absent_symbol_xyz(void);\nint use(void) { return absent_symbol_xyz(); }\n",
		Options: "-nostdlib",
	})
	if err == nil {
		t.Fatal("expected a link failure")
	}
	if !strings.Contains(err.Error(), "absent_symbol_xyz") {
		t.Errorf("diagnostic should name the symbol: %v", err)
	}
}

func TestCompile_InjectedSymbol(t *testing.T) {
	host, err := NewExecBuffer(4096)
	if err != nil {
		t.Fatalf("NewExecBuffer: %v", err)
	}
	defer host.Close()

	unit, err := Compile(Unit{
		Name:    "inject.c",
		Source:  "extern int host_value;\nint* where(void) { return &host_value; }\n",
		Options: "-nostdlib",
		Symbols: map[string]unsafe.Pointer{"host_value": host.Ptr()},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer unit.Close()
	if _, err := unit.Symbol("where"); err != nil {
		t.Fatalf("Symbol: %v", err)
	}
}

func TestCompile_EmptyUnit(t *testing.T) {
	_, err := Compile(Unit{Name: "empty"})
	if err == nil {
		t.Fatal("a unit without source should fail")
	}
}

func TestCompile_Defines(t *testing.T) {
	unit, err := Compile(Unit{
		Name:    "defs.c",
		Source:  "#ifndef ANSWER\n#error ANSWER missing\n#endif\nint answer(void) { return ANSWER; }\n",
		Options: "-nostdlib",
		Defines: map[string]string{"ANSWER": "42"},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	defer unit.Close()
}

func TestCompiled_CloseIdempotent(t *testing.T) {
	unit, err := Compile(Unit{
		Name:    "close.c",
		Source:  "int one(void) { return 1; }\n",
		Options: "-nostdlib",
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := unit.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := unit.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := unit.Symbol("one"); err == nil {
		t.Error("symbol lookup after Close should fail")
	}
}

func TestExecBuffer(t *testing.T) {
	buf, err := NewExecBuffer(4096)
	if err != nil {
		t.Fatalf("NewExecBuffer: %v", err)
	}
	if buf.Len() != 4096 {
		t.Errorf("Len = %d", buf.Len())
	}
	if buf.Ptr() == nil || buf.Addr() == 0 {
		t.Error("mapping address is zero")
	}

	// The mapping starts writable; poke a byte through it.
	b := unsafe.Slice((*byte)(buf.Ptr()), buf.Len())
	b[0] = 0xc3

	if err := buf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if buf.Ptr() != nil {
		t.Error("Ptr should be nil after Close")
	}
}

func TestWithWritable(t *testing.T) {
	ran := false
	if err := WithWritable(func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("WithWritable: %v", err)
	}
	if !ran {
		t.Error("callback did not run")
	}

	boom := stderrors.New("boom")
	if err := WithWritable(func() error { return boom }); !stderrors.Is(err, boom) {
		t.Errorf("error not propagated: %v", err)
	}
}

func TestStateCloseIdempotent(t *testing.T) {
	s, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	// Closed states ignore further driver calls.
	s.CompileString("int x;")
	if s.RelocateSize() >= 0 {
		t.Error("closed state should not relocate")
	}
}

func TestRelocate_NonPositiveSizeIsRelocationError(t *testing.T) {
	s, err := NewState()
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A non-positive size is a compiler-integrity failure and must be
	// classified as such, not surface as an mmap allocation error.
	_, rerr := s.Relocate()
	if rerr == nil {
		t.Fatal("expected relocation failure")
	}
	var e *errors.Error
	if !stderrors.As(rerr, &e) {
		t.Fatalf("error type = %T: %v", rerr, rerr)
	}
	if e.Kind != errors.KindRelocation {
		t.Errorf("kind = %s, want %s", e.Kind, errors.KindRelocation)
	}
}
