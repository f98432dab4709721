package runtime

/*
#include <stdint.h>

typedef uint64_t (*bridge_entry_fn)(uint64_t*);

static uint64_t bridge_call_entry(void* entry, uint64_t* frame) {
	return ((bridge_entry_fn)entry)(frame);
}
*/
import "C"

import "unsafe"

// callEntry invokes a relocated wrapper entry with a call frame. The frame
// carries the argument count in word zero and boundary-encoded arguments
// after it; the entry reads arguments at fixed offsets past the count.
func callEntry(entry unsafe.Pointer, frame []uint64) uint64 {
	return uint64(C.bridge_call_entry(entry, (*C.uint64_t)(unsafe.Pointer(&frame[0]))))
}
