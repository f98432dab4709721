//go:build !(darwin && arm64)

package engine

// jitWriteProtect is a no-op on platforms where executable mappings stay
// writable.
func jitWriteProtect(protect bool) {}
