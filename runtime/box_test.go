package runtime

import (
	"testing"

	"github.com/wippyai/native-runtime/abi"
)

func TestBox_SmallValuesStayImmediate(t *testing.T) {
	v := BoxI64(42)
	if !v.IsInt32() {
		t.Errorf("expected immediate encoding for 42, got %v", v)
	}
	n, ok := UnboxI64(v)
	if !ok {
		t.Fatal("unbox failed")
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
}

func TestBox_LargeSignedInterns(t *testing.T) {
	const big = int64(1) << 60
	v := BoxI64(big)
	if !v.IsCell() {
		t.Fatalf("expected cell word for %d, got %v", big, v)
	}
	n, ok := UnboxI64(v)
	if !ok {
		t.Fatal("unbox failed")
	}
	if n != big {
		t.Errorf("expected %d, got %d", big, n)
	}

	ReleaseBoxed(v)
	if _, ok := UnboxI64(v); ok {
		t.Error("expected release to drop the cell")
	}
}

func TestBox_LargeUnsignedInterns(t *testing.T) {
	const big = uint64(1) << 63
	v := BoxU64(big)
	if !v.IsCell() {
		t.Fatalf("expected cell word for %d, got %v", big, v)
	}
	n, ok := UnboxU64(v)
	if !ok {
		t.Fatal("unbox failed")
	}
	if n != big {
		t.Errorf("expected %d, got %d", big, n)
	}
	ReleaseBoxed(v)
}

func TestBox_NegativeRoundTrip(t *testing.T) {
	v := BoxI64(-9007199254740993) // one past the exact double range
	n, ok := UnboxI64(v)
	if !ok {
		t.Fatal("unbox failed")
	}
	if n != -9007199254740993 {
		t.Errorf("expected -9007199254740993, got %d", n)
	}
	ReleaseBoxed(v)
}

func TestBox_UnboxRejectsNonCell(t *testing.T) {
	if _, ok := UnboxI64(abi.EncodeBool(true)); ok {
		t.Error("expected unbox of a boolean to fail")
	}
	if _, ok := UnboxU64(abi.Null); ok {
		t.Error("expected unbox of null to fail")
	}
}

func TestBox_UnknownWordYieldsZero(t *testing.T) {
	const stray = uint64(1) << 43
	if got := unboxI64(stray); got != 0 {
		t.Errorf("expected 0 for unknown word, got %d", got)
	}
	if got := unboxU64(stray); got != 0 {
		t.Errorf("expected 0 for unknown word, got %d", got)
	}
}

func TestBox_HelperWordsAlwaysIntern(t *testing.T) {
	word := boxI64(7)
	v := abi.Value(word)
	if !v.IsCell() {
		t.Fatalf("expected helper to intern, got %v", v)
	}
	if got := unboxI64(word); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	ReleaseBoxed(v)
}
