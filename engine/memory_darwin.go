//go:build darwin

package engine

import "golang.org/x/sys/unix"

// MAP_JIT is required for executable anonymous mappings under the hardened
// runtime; it also enables the per-thread write-protection toggle.
const mapFlags = unix.MAP_PRIVATE | unix.MAP_ANON | unix.MAP_JIT
