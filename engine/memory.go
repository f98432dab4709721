package engine

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wippyai/native-runtime/errors"
)

// ExecBuffer is an anonymous executable mapping that holds relocated code.
// Extracted symbol addresses point into it, so it must outlive every
// callable that references them.
type ExecBuffer struct {
	buf []byte
}

// NewExecBuffer maps size bytes of executable memory.
func NewExecBuffer(size int) (*ExecBuffer, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, mapFlags)
	if err != nil {
		return nil, errors.New(errors.PhaseRelocate, errors.KindAllocation).
			Detail("mmap of %d bytes", size).
			Cause(err).
			Build()
	}
	return &ExecBuffer{buf: buf}, nil
}

// Ptr returns the start of the mapping, or nil after Close.
func (b *ExecBuffer) Ptr() unsafe.Pointer {
	if len(b.buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.buf[0])
}

// Addr returns the start of the mapping as an address.
func (b *ExecBuffer) Addr() uintptr {
	return uintptr(b.Ptr())
}

// Len returns the mapped size in bytes.
func (b *ExecBuffer) Len() int {
	return len(b.buf)
}

// Close unmaps the buffer. Safe to call more than once.
func (b *ExecBuffer) Close() error {
	if b.buf == nil {
		return nil
	}
	err := unix.Munmap(b.buf)
	b.buf = nil
	if err != nil {
		return errors.New(errors.PhaseClose, errors.KindInternal).
			Detail("munmap").
			Cause(err).
			Build()
	}
	return nil
}

// WithWritable runs fn with JIT write protection lifted on platforms that
// enforce it, restoring protection on every exit path. The toggle applies
// to the calling thread, so the goroutine is pinned for the duration.
func WithWritable(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	jitWriteProtect(false)
	defer jitWriteProtect(true)
	return fn()
}
