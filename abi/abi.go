package abi

import (
	"strings"

	"github.com/wippyai/native-runtime/errors"
)

// Type identifies one marshalable C calling-convention type. The numeric
// values form a closed, stable range so signatures can be shipped by id as
// well as by name.
type Type uint8

const (
	Char Type = iota
	I8
	U8
	I16
	U16
	I32
	U32
	I64
	U64
	Double
	Float
	Bool
	Pointer
	Void
	CString
	I64Fast
	U64Fast
	Function
)

// MaxType is the highest valid Type value.
const MaxType = Function

var typeNames = [...]string{
	Char:     "char",
	I8:       "i8",
	U8:       "u8",
	I16:      "i16",
	U16:      "u16",
	I32:      "i32",
	U32:      "u32",
	I64:      "i64",
	U64:      "u64",
	Double:   "f64",
	Float:    "f32",
	Bool:     "bool",
	Pointer:  "ptr",
	Void:     "void",
	CString:  "cstring",
	I64Fast:  "i64_fast",
	U64Fast:  "u64_fast",
	Function: "function",
}

var cNames = [...]string{
	Char:     "char",
	I8:       "int8_t",
	U8:       "uint8_t",
	I16:      "int16_t",
	U16:      "uint16_t",
	I32:      "int32_t",
	U32:      "uint32_t",
	I64:      "int64_t",
	U64:      "uint64_t",
	Double:   "double",
	Float:    "float",
	Bool:     "bool",
	Pointer:  "void*",
	Void:     "void",
	CString:  "char*",
	I64Fast:  "int64_t",
	U64Fast:  "uint64_t",
	Function: "void*",
}

// aliases maps every recognized spelling to exactly one Type. Lookups are
// folded to lower case; anything absent is a hard error, never a default.
var aliases = map[string]Type{
	"char":     Char,
	"i8":       I8,
	"int8_t":   I8,
	"u8":       U8,
	"uint8_t":  U8,
	"i16":      I16,
	"int16_t":  I16,
	"u16":      U16,
	"uint16_t": U16,
	"i32":      I32,
	"int32_t":  I32,
	"int":      I32,
	"u32":      U32,
	"uint32_t": U32,
	"i64":      I64,
	"int64_t":  I64,
	"isize":    I64,
	"u64":      U64,
	"uint64_t": U64,
	"usize":    U64,
	"f64":      Double,
	"double":   Double,
	"f32":      Float,
	"float":    Float,
	"bool":     Bool,
	"ptr":      Pointer,
	"pointer":  Pointer,
	"void":     Void,
	"cstring":  CString,
	"i64_fast": I64Fast,
	"u64_fast": U64Fast,
	"function": Function,
	"fn":       Function,
	"callback": Function,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// CName returns the canonical C type name used in declarations and casts.
func (t Type) CName() string {
	if int(t) < len(cNames) {
		return cNames[t]
	}
	return "void"
}

// ParamName returns the C type name used in parameter position. It matches
// CName for every type except U32, which is declared as a signed 32-bit
// parameter to match the boundary's argument-passing convention while still
// round-tripping as unsigned on return.
func (t Type) ParamName() string {
	if t == U32 {
		return "int32_t"
	}
	return t.CName()
}

// IsFloat reports whether the type is a floating-point kind.
func (t Type) IsFloat() bool {
	return t == Double || t == Float
}

// NeedsCast reports whether a boundary word must be narrowed through an
// explicit cast instead of being passed as a raw 64-bit integer.
func (t Type) NeedsCast() bool {
	switch t {
	case Char, I8, U8, I16, U16, Bool:
		return true
	default:
		return false
	}
}

// Is64Bit reports whether values of the type may exceed the boundary's
// 53-bit fast numeric range and therefore need the slow conversion helpers.
func (t Type) Is64Bit() bool {
	switch t {
	case I64, U64, I64Fast, U64Fast:
		return true
	default:
		return false
	}
}

// Parse resolves a type name or alias. Unrecognized names fail with
// UnknownType; there is no default.
func Parse(name string) (Type, error) {
	if t, ok := aliases[strings.ToLower(name)]; ok {
		return t, nil
	}
	return Void, errors.UnknownType(name)
}

// FromID resolves a numeric type id within the closed range [0, MaxType].
func FromID(id int) (Type, error) {
	if id < 0 || id > int(MaxType) {
		return Void, errors.InvalidTypeID(id, int(MaxType))
	}
	return Type(id), nil
}

// Resolve accepts either spelling of a type selector: a name string or a
// numeric id. Request decoding produces both, depending on whether the
// signature was declared by name or by a precomputed integer tag.
func Resolve(v any) (Type, error) {
	switch x := v.(type) {
	case string:
		return Parse(x)
	case Type:
		return FromID(int(x))
	case int:
		return FromID(x)
	case int8:
		return FromID(int(x))
	case int16:
		return FromID(int(x))
	case int32:
		return FromID(int(x))
	case int64:
		return FromID(int(x))
	case uint8:
		return FromID(int(x))
	case uint16:
		return FromID(int(x))
	case uint32:
		return FromID(int(x))
	case uint64:
		return FromID(int(x))
	case float64:
		id := int(x)
		if float64(id) != x {
			return Void, errors.Config("type id must be an integer")
		}
		return FromID(id)
	default:
		return Void, errors.Config("type selector must be a name or integer id")
	}
}
