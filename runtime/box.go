package runtime

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/native-runtime/abi"
)

// boxes is a process-wide registry of interned 64-bit values referenced
// from generated C through cell words. The registry is global because the
// ffi_box/ffi_unbox helpers linked into compiled wrappers are process-wide
// symbols.
var boxes sync.Map // map[uint64]uint64, cell word -> raw bits

// boxSeq yields unique cell words. Words are sequence numbers shifted left
// so the low bits stay clear of the tagged singletons and the top bits stay
// clear of the number tags; zero is reserved for the empty value.
var boxSeq atomic.Uint64

func boxWord(bits uint64) abi.Value {
	word := boxSeq.Add(1) << 3
	boxes.Store(word, bits)
	return abi.Value(word)
}

func unboxWord(word uint64) (uint64, bool) {
	bits, ok := boxes.Load(word)
	if !ok {
		return 0, false
	}
	return bits.(uint64), true
}

// BoxI64 encodes a signed 64-bit integer, interning values the immediate
// encoding cannot hold exactly. The returned word is valid until released.
func BoxI64(n int64) abi.Value {
	if v, ok := abi.EncodeI64(n); ok {
		return v
	}
	return boxWord(uint64(n))
}

// BoxU64 encodes an unsigned 64-bit integer, interning values the
// immediate encoding cannot hold exactly.
func BoxU64(n uint64) abi.Value {
	if v, ok := abi.EncodeU64(n); ok {
		return v
	}
	return boxWord(n)
}

// UnboxI64 decodes a signed 64-bit integer from either the immediate
// encoding or an interned cell.
func UnboxI64(v abi.Value) (int64, bool) {
	if n, ok := v.Int64(); ok {
		return n, true
	}
	if v.IsCell() {
		if bits, ok := unboxWord(uint64(v)); ok {
			return int64(bits), true
		}
	}
	return 0, false
}

// UnboxU64 decodes an unsigned 64-bit integer from either the immediate
// encoding or an interned cell.
func UnboxU64(v abi.Value) (uint64, bool) {
	if n, ok := v.Uint64(); ok {
		return n, true
	}
	if v.IsCell() {
		if bits, ok := unboxWord(uint64(v)); ok {
			return bits, true
		}
	}
	return 0, false
}

// ReleaseBoxed drops an interned cell. Callers that round-trip many large
// 64-bit values release words they no longer pass to native code; without a
// release the registry holds them for the life of the process.
func ReleaseBoxed(v abi.Value) {
	if v.IsCell() {
		boxes.Delete(uint64(v))
	}
}

// boxI64 and friends back the C-linkable ffi_box/ffi_unbox exports.

func boxI64(n int64) uint64 {
	return uint64(boxWord(uint64(n)))
}

func boxU64(n uint64) uint64 {
	return uint64(boxWord(n))
}

func unboxI64(word uint64) int64 {
	bits, ok := unboxWord(word)
	if !ok {
		Logger().Debug("unbox of unknown cell word", zap.Uint64("word", word))
		return 0
	}
	return int64(bits)
}

func unboxU64(word uint64) uint64 {
	bits, ok := unboxWord(word)
	if !ok {
		Logger().Debug("unbox of unknown cell word", zap.Uint64("word", word))
		return 0
	}
	return bits
}
