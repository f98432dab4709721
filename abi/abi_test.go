package abi

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/native-runtime/errors"
)

func TestParse_Aliases(t *testing.T) {
	tests := []struct {
		alias string
		want  Type
	}{
		{"char", Char},
		{"i8", I8},
		{"int8_t", I8},
		{"u8", U8},
		{"uint8_t", U8},
		{"i16", I16},
		{"int16_t", I16},
		{"u16", U16},
		{"uint16_t", U16},
		{"i32", I32},
		{"int32_t", I32},
		{"int", I32},
		{"u32", U32},
		{"uint32_t", U32},
		{"i64", I64},
		{"int64_t", I64},
		{"isize", I64},
		{"u64", U64},
		{"uint64_t", U64},
		{"usize", U64},
		{"f64", Double},
		{"double", Double},
		{"f32", Float},
		{"float", Float},
		{"bool", Bool},
		{"ptr", Pointer},
		{"pointer", Pointer},
		{"void", Void},
		{"cstring", CString},
		{"i64_fast", I64Fast},
		{"u64_fast", U64Fast},
		{"function", Function},
		{"fn", Function},
		{"callback", Function},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, err := Parse(tt.alias)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.alias, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.alias, got, tt.want)
			}
		})
	}
}

func TestParse_CaseFolding(t *testing.T) {
	for _, alias := range []string{"I32", "PTR", "Double", "CString", "USIZE"} {
		if _, err := Parse(alias); err != nil {
			t.Errorf("Parse(%q) should fold case, got error: %v", alias, err)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, name := range []string{"", "i128", "uint128_t", "str", "object", "u3 2"} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(name)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", name)
			}
			target := &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindUnknownType}
			if !stderrors.Is(err, target) {
				t.Errorf("Parse(%q) error = %v, want unknown_type", name, err)
			}
		})
	}
}

func TestFromID(t *testing.T) {
	for id := 0; id <= int(MaxType); id++ {
		got, err := FromID(id)
		if err != nil {
			t.Fatalf("FromID(%d) error: %v", id, err)
		}
		if got != Type(id) {
			t.Errorf("FromID(%d) = %v, want %v", id, got, Type(id))
		}
	}

	for _, id := range []int{-1, int(MaxType) + 1, 99, 256} {
		_, err := FromID(id)
		if err == nil {
			t.Errorf("FromID(%d) should fail", id)
			continue
		}
		target := &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidType}
		if !stderrors.Is(err, target) {
			t.Errorf("FromID(%d) error = %v, want invalid_type", id, err)
		}
	}
}

func TestAliasMatchesID(t *testing.T) {
	// Both selector spellings of the same type must agree.
	for id := 0; id <= int(MaxType); id++ {
		byID, err := FromID(id)
		if err != nil {
			t.Fatalf("FromID(%d): %v", id, err)
		}
		byName, err := Parse(byID.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", byID.String(), err)
		}
		if byName != byID {
			t.Errorf("Parse(%q) = %v, FromID(%d) = %v", byID.String(), byName, id, byID)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Type
		wantErr bool
	}{
		{"string name", "i32", I32, false},
		{"int id", 9, Double, false},
		{"int64 id", int64(12), Pointer, false},
		{"uint64 id", uint64(5), I32, false},
		{"float64 whole", float64(10), Float, false},
		{"float64 fraction", 7.5, Void, true},
		{"unknown string", "i128", Void, true},
		{"out of range", 200, Void, true},
		{"bad kind", true, Void, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%v) should fail", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%v) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCName(t *testing.T) {
	tests := []struct {
		t    Type
		want string
	}{
		{Char, "char"},
		{I8, "int8_t"},
		{U32, "uint32_t"},
		{I64Fast, "int64_t"},
		{U64Fast, "uint64_t"},
		{Double, "double"},
		{Pointer, "void*"},
		{CString, "char*"},
		{Function, "void*"},
		{Void, "void"},
	}
	for _, tt := range tests {
		if got := tt.t.CName(); got != tt.want {
			t.Errorf("%v.CName() = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestParamName_U32Quirk(t *testing.T) {
	// U32 parameters are declared signed; every other type matches CName.
	if got := U32.ParamName(); got != "int32_t" {
		t.Errorf("U32.ParamName() = %q, want int32_t", got)
	}
	if got := U32.CName(); got != "uint32_t" {
		t.Errorf("U32.CName() = %q, want uint32_t", got)
	}
	for id := 0; id <= int(MaxType); id++ {
		typ := Type(id)
		if typ == U32 {
			continue
		}
		if typ.ParamName() != typ.CName() {
			t.Errorf("%v.ParamName() = %q, want %q", typ, typ.ParamName(), typ.CName())
		}
	}
}

func TestIsFloat(t *testing.T) {
	for id := 0; id <= int(MaxType); id++ {
		typ := Type(id)
		want := typ == Double || typ == Float
		if got := typ.IsFloat(); got != want {
			t.Errorf("%v.IsFloat() = %v, want %v", typ, got, want)
		}
	}
}

func TestNeedsCast(t *testing.T) {
	narrow := map[Type]bool{Char: true, I8: true, U8: true, I16: true, U16: true, Bool: true}
	for id := 0; id <= int(MaxType); id++ {
		typ := Type(id)
		if got := typ.NeedsCast(); got != narrow[typ] {
			t.Errorf("%v.NeedsCast() = %v, want %v", typ, got, narrow[typ])
		}
	}
}

func TestTypeString_Unknown(t *testing.T) {
	if got := Type(200).String(); got != "unknown" {
		t.Errorf("Type(200).String() = %q, want unknown", got)
	}
}
