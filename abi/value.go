package abi

import (
	"math"
	"strconv"
)

// Value is the boundary-encoded word exchanged with generated shims: a
// 64-bit NaN-boxed encoding holding either a 32-bit integer, a shifted
// double, a tagged singleton (null, undefined, booleans), or a boxed-cell
// reference. The bit layout here must match the macros emitted into shim
// preludes exactly; both sides reinterpret the same words.
type Value uint64

const (
	// Doubles are stored with this offset added to their raw bits so that
	// every encoded double lands in the pointer-free NaN space.
	doubleEncodeOffset = uint64(1) << 49
	// Int32 payloads carry this tag in the top 16 bits.
	numberTag = uint64(0xfffe_0000_0000_0000)

	otherTag     = uint64(0x2)
	boolTag      = uint64(0x4)
	undefinedTag = uint64(0x8)

	notCellMask = numberTag | otherTag
)

// MaxSafeInt is the largest integer magnitude the double fast path
// represents exactly. 64-bit values beyond it take the boxed slow path.
const MaxSafeInt = int64(1)<<53 - 1

const (
	Empty     Value = 0
	Null      Value = Value(otherTag)
	False     Value = Value(otherTag | boolTag)
	True      Value = Value(otherTag | boolTag | 1)
	Undefined Value = Value(otherTag | undefinedTag)
)

func (v Value) IsInt32() bool {
	return uint64(v)&numberTag == numberTag
}

func (v Value) IsNumber() bool {
	return uint64(v)&numberTag != 0
}

func (v Value) IsDouble() bool {
	return v.IsNumber() && !v.IsInt32()
}

func (v Value) IsBool() bool {
	return v == True || v == False
}

func (v Value) IsNull() bool {
	return v == Null
}

func (v Value) IsUndefined() bool {
	return v == Undefined
}

// IsCell reports whether the value references a boxed object rather than an
// immediate. Boxed 64-bit integers decode through the slow helpers, not here.
func (v Value) IsCell() bool {
	return uint64(v)&notCellMask == 0 && v != Empty
}

// EncodeI32 encodes a 32-bit signed integer.
func EncodeI32(v int32) Value {
	return Value(numberTag | uint64(uint32(v)))
}

// EncodeU32 encodes a 32-bit unsigned integer, spilling to the double
// encoding when the value does not fit the signed 32-bit payload.
func EncodeU32(v uint32) Value {
	if v <= math.MaxInt32 {
		return EncodeI32(int32(v))
	}
	return EncodeF64(float64(v))
}

// EncodeF64 encodes a double.
func EncodeF64(v float64) Value {
	return Value(math.Float64bits(v) + doubleEncodeOffset)
}

// EncodeF32 encodes a float through the double encoding.
func EncodeF32(v float32) Value {
	return EncodeF64(float64(v))
}

// EncodeBool encodes a boolean singleton.
func EncodeBool(v bool) Value {
	if v {
		return True
	}
	return False
}

// EncodePtr encodes a native address as a numeric value. A zero address
// encodes as Null, matching the boundary's treatment of NULL results.
func EncodePtr(p uintptr) Value {
	if p == 0 {
		return Null
	}
	return EncodeF64(float64(p))
}

// EncodeI64 encodes a 64-bit signed integer on the fast path. ok is false
// when the magnitude exceeds MaxSafeInt and the boxed slow path is required.
func EncodeI64(v int64) (Value, bool) {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return EncodeI32(int32(v)), true
	}
	if v >= -MaxSafeInt && v <= MaxSafeInt {
		return EncodeF64(float64(v)), true
	}
	return Undefined, false
}

// EncodeU64 encodes a 64-bit unsigned integer on the fast path. ok is false
// when the value exceeds MaxSafeInt.
func EncodeU64(v uint64) (Value, bool) {
	if v <= math.MaxInt32 {
		return EncodeI32(int32(v)), true
	}
	if v <= uint64(MaxSafeInt) {
		return EncodeF64(float64(v)), true
	}
	return Undefined, false
}

// Int32 narrows the value to a signed 32-bit integer.
func (v Value) Int32() int32 {
	if v.IsInt32() {
		return int32(uint32(uint64(v)))
	}
	if v.IsDouble() {
		return int32(v.Float64())
	}
	if v == True {
		return 1
	}
	return 0
}

// Uint32 narrows the value to an unsigned 32-bit integer.
func (v Value) Uint32() uint32 {
	if v.IsInt32() {
		return uint32(uint64(v))
	}
	if v.IsDouble() {
		return uint32(v.Float64())
	}
	if v == True {
		return 1
	}
	return 0
}

// Float64 reads the value as a double. Non-numbers yield NaN.
func (v Value) Float64() float64 {
	if v.IsInt32() {
		return float64(v.Int32())
	}
	if v.IsDouble() {
		return math.Float64frombits(uint64(v) - doubleEncodeOffset)
	}
	return math.NaN()
}

// Float32 reads the value as a float.
func (v Value) Float32() float32 {
	return float32(v.Float64())
}

// Bool reads the value as a boolean, with numeric truthiness for numbers.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False, Null, Undefined, Empty:
		return false
	}
	if v.IsInt32() {
		return v.Int32() != 0
	}
	if v.IsDouble() {
		f := v.Float64()
		return f != 0 && !math.IsNaN(f)
	}
	return false
}

// Ptr reads the value as a native address. Null and undefined read as zero.
func (v Value) Ptr() uintptr {
	switch v {
	case Null, Undefined, Empty:
		return 0
	}
	if v.IsInt32() {
		return uintptr(int64(v.Int32()))
	}
	if v.IsDouble() {
		return uintptr(v.Float64())
	}
	return 0
}

// Int64 reads the value as a signed 64-bit integer on the fast path. ok is
// false for cells, which hold boxed values only the slow helpers decode.
func (v Value) Int64() (int64, bool) {
	if v.IsInt32() {
		return int64(v.Int32()), true
	}
	if v.IsDouble() {
		f := v.Float64()
		if f >= float64(math.MinInt64) && f < float64(math.MaxInt64) {
			return int64(f), true
		}
	}
	return 0, false
}

// Uint64 reads the value as an unsigned 64-bit integer on the fast path.
func (v Value) Uint64() (uint64, bool) {
	if v.IsInt32() {
		n := v.Int32()
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	}
	if v.IsDouble() {
		f := v.Float64()
		if f >= 0 && f < float64(math.MaxUint64) {
			return uint64(f), true
		}
	}
	return 0, false
}

func (v Value) String() string {
	switch v {
	case Empty:
		return "empty"
	case Null:
		return "null"
	case Undefined:
		return "undefined"
	case True:
		return "true"
	case False:
		return "false"
	}
	if v.IsInt32() {
		return strconv.FormatInt(int64(v.Int32()), 10)
	}
	if v.IsDouble() {
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	}
	return "cell(0x" + strconv.FormatUint(uint64(v), 16) + ")"
}
