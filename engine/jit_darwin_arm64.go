//go:build darwin && arm64

package engine

/*
#include <pthread.h>
*/
import "C"

// jitWriteProtect toggles MAP_JIT write protection for the calling thread.
func jitWriteProtect(protect bool) {
	v := C.int(0)
	if protect {
		v = 1
	}
	C.pthread_jit_write_protect_np(v)
}
