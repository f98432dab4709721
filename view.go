package nativeruntime

import (
	"math"
	"unsafe"
)

// View is a window over native memory starting at a base address. Reads and
// writes are unchecked: the caller guarantees the addressed range is mapped
// and stays alive for the duration of the access. Views are typically built
// from pointer values returned by native calls.
type View struct {
	base uintptr
}

// NewView creates a view rooted at addr.
func NewView(addr uintptr) View {
	return View{base: addr}
}

// Addr returns the base address of the view.
func (v View) Addr() uintptr {
	return v.base
}

// Slice returns a view shifted by off bytes.
func (v View) Slice(off uintptr) View {
	return View{base: v.base + off}
}

func (v View) ReadU8(off uintptr) uint8 {
	return *(*uint8)(unsafe.Pointer(v.base + off))
}

func (v View) ReadI8(off uintptr) int8 {
	return *(*int8)(unsafe.Pointer(v.base + off))
}

func (v View) ReadU16(off uintptr) uint16 {
	return *(*uint16)(unsafe.Pointer(v.base + off))
}

func (v View) ReadI16(off uintptr) int16 {
	return *(*int16)(unsafe.Pointer(v.base + off))
}

func (v View) ReadU32(off uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(v.base + off))
}

func (v View) ReadI32(off uintptr) int32 {
	return *(*int32)(unsafe.Pointer(v.base + off))
}

func (v View) ReadU64(off uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(v.base + off))
}

func (v View) ReadI64(off uintptr) int64 {
	return *(*int64)(unsafe.Pointer(v.base + off))
}

func (v View) ReadF32(off uintptr) float32 {
	return math.Float32frombits(v.ReadU32(off))
}

func (v View) ReadF64(off uintptr) float64 {
	return math.Float64frombits(v.ReadU64(off))
}

func (v View) ReadPtr(off uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(v.base + off))
}

func (v View) WriteU8(off uintptr, value uint8) {
	*(*uint8)(unsafe.Pointer(v.base + off)) = value
}

func (v View) WriteU16(off uintptr, value uint16) {
	*(*uint16)(unsafe.Pointer(v.base + off)) = value
}

func (v View) WriteU32(off uintptr, value uint32) {
	*(*uint32)(unsafe.Pointer(v.base + off)) = value
}

func (v View) WriteU64(off uintptr, value uint64) {
	*(*uint64)(unsafe.Pointer(v.base + off)) = value
}

func (v View) WriteF32(off uintptr, value float32) {
	v.WriteU32(off, math.Float32bits(value))
}

func (v View) WriteF64(off uintptr, value float64) {
	v.WriteU64(off, math.Float64bits(value))
}

// Bytes copies length bytes starting at off into fresh Go memory.
func (v View) Bytes(off uintptr, length int) []byte {
	out := make([]byte, length)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(v.base+off)), length))
	return out
}

// WriteBytes copies data into native memory starting at off.
func (v View) WriteBytes(off uintptr, data []byte) {
	copy(unsafe.Slice((*byte)(unsafe.Pointer(v.base+off)), len(data)), data)
}

// CString reads a NUL-terminated string starting at off. The result is a
// copy; the native buffer may be freed afterwards.
func (v View) CString(off uintptr) string {
	addr := v.base + off
	n := 0
	for *(*byte)(unsafe.Pointer(addr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
}
