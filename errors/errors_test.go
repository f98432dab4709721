package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseLink,
				Kind:    KindSymbolMissing,
				Symbol:  "add",
				Path:    "libm.so.6",
				Detail:  "symbol not exported",
				Syscall: "dlsym",
			},
			contains: []string{"[link]", "symbol_missing", "add", "libm.so.6", "symbol not exported", "dlsym"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseConfig,
				Kind:  KindBadRequest,
			},
			contains: []string{"[config]", "bad_request"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindAllocation,
				Detail: "code buffer",
				Cause:  errors.New("mmap failed"),
			},
			contains: []string{"[compile]", "allocation", "code buffer", "caused by", "mmap failed"},
		},
		{
			name: "syscall with code",
			err: &Error{
				Phase:   PhaseLink,
				Kind:    KindLibraryOpen,
				Path:    "libmissing",
				Detail:  "library failed to load",
				Syscall: "dlopen",
				Code:    2,
			},
			contains: []string{"[link]", "library_open", "libmissing", "dlopen", "errno 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseCompile,
		Kind:  KindDiagnostics,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseLink,
		Kind:   KindSymbolMissing,
		Symbol: "add",
	}

	if !err.Is(&Error{Phase: PhaseLink, Kind: KindSymbolMissing}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseConfig, Kind: KindSymbolMissing}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseLink, Kind: KindLibraryOpen}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseLink, Kind: KindSymbolMissing}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseLink, KindLibraryOpen).
		Symbol("add").
		Path("libplugin.so").
		Syscall("dlopen", 2).
		Value("libplugin.so").
		Cause(cause).
		Detail("tried %d locations", 3).
		Build()

	if err.Phase != PhaseLink {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseLink)
	}
	if err.Kind != KindLibraryOpen {
		t.Errorf("Kind = %v, want %v", err.Kind, KindLibraryOpen)
	}
	if err.Symbol != "add" {
		t.Errorf("Symbol = %v, want 'add'", err.Symbol)
	}
	if err.Path != "libplugin.so" {
		t.Errorf("Path = %v, want 'libplugin.so'", err.Path)
	}
	if err.Syscall != "dlopen" || err.Code != 2 {
		t.Errorf("Syscall=%v Code=%v, want dlopen/2", err.Syscall, err.Code)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "tried 3 locations" {
		t.Errorf("Detail = %v, want 'tried 3 locations'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		err := UnknownType("i128")
		if err.Kind != KindUnknownType {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnknownType)
		}
		if !strings.Contains(err.Detail, "i128") {
			t.Errorf("Detail = %v, should name the type", err.Detail)
		}
	})

	t.Run("InvalidTypeID", func(t *testing.T) {
		err := InvalidTypeID(99, 16)
		if err.Kind != KindInvalidType {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidType)
		}
		if err.Value != 99 {
			t.Errorf("Value = %v, want 99", err.Value)
		}
	})

	t.Run("BadSymbol", func(t *testing.T) {
		err := BadSymbol("draw", "expected an object")
		if err.Kind != KindBadRequest {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBadRequest)
		}
		if err.Symbol != "draw" {
			t.Errorf("Symbol = %v, want 'draw'", err.Symbol)
		}
	})

	t.Run("EmptySymbols", func(t *testing.T) {
		err := EmptySymbols()
		if err.Kind != KindEmptySymbols {
			t.Errorf("Kind = %v, want %v", err.Kind, KindEmptySymbols)
		}
	})

	t.Run("LibraryOpen", func(t *testing.T) {
		err := LibraryOpen("libplugin", "library failed to load", "dlopen", 2)
		if err.Kind != KindLibraryOpen {
			t.Errorf("Kind = %v, want %v", err.Kind, KindLibraryOpen)
		}
		if err.Syscall != "dlopen" || err.Code != 2 {
			t.Errorf("Syscall=%v Code=%v, want dlopen/2", err.Syscall, err.Code)
		}
	})

	t.Run("SymbolMissing", func(t *testing.T) {
		err := SymbolMissing("mul", "libm.so.6")
		if err.Kind != KindSymbolMissing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindSymbolMissing)
		}
		if !strings.Contains(err.Detail, "mul") {
			t.Errorf("Detail = %v, should name the symbol", err.Detail)
		}
	})

	t.Run("RelocationFailed", func(t *testing.T) {
		err := RelocationFailed("relocation size was negative")
		if err.Kind != KindRelocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindRelocation)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseRelocate, 4096)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "4096") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("NotCallable", func(t *testing.T) {
		err := NotCallable()
		if err.Kind != KindNotCallable {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotCallable)
		}
	})

	t.Run("ThreadsafeReturn", func(t *testing.T) {
		err := ThreadsafeReturn("i32")
		if err.Kind != KindThreadsafeReturn {
			t.Errorf("Kind = %v, want %v", err.Kind, KindThreadsafeReturn)
		}
		if !strings.Contains(err.Detail, "i32") {
			t.Errorf("Detail = %v, should name the return type", err.Detail)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed("library")
		if err.Kind != KindClosed {
			t.Errorf("Kind = %v, want %v", err.Kind, KindClosed)
		}
	})
}

func TestCompileError(t *testing.T) {
	t.Run("aggregates in order", func(t *testing.T) {
		err := NewCompileError("bad.c", []string{
			"bad.c:1: error: ';' expected",
			"bad.c:4: error: unknown type",
			"bad.c:9: error: ')' expected",
		})
		msg := err.Error()
		if !strings.Contains(msg, "3 errors while compiling bad.c") {
			t.Errorf("message %q missing aggregate header", msg)
		}
		first := strings.Index(msg, "';' expected")
		second := strings.Index(msg, "unknown type")
		third := strings.Index(msg, "')' expected")
		if first < 0 || second < 0 || third < 0 {
			t.Fatalf("message %q missing a diagnostic", msg)
		}
		if !(first < second && second < third) {
			t.Errorf("diagnostics out of emission order in %q", msg)
		}
	})

	t.Run("no diagnostics", func(t *testing.T) {
		err := NewCompileError("empty.c", nil)
		if !strings.Contains(err.Error(), "empty.c") {
			t.Errorf("message %q should name the unit", err.Error())
		}
	})

	t.Run("errors.Is matching", func(t *testing.T) {
		err := NewCompileError("x.c", []string{"boom"})
		if !errors.Is(err, &CompileError{}) {
			t.Error("errors.Is should match CompileError")
		}
	})
}
