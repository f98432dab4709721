// Package engine drives the embedded C compiler that turns generated shim
// source and user translation units into callable machine code.
//
// # Architecture
//
// The package provides four pieces:
//
//	State      - one in-memory compilation context with its own diagnostic sink
//	ExecBuffer - an anonymous executable mapping holding relocated code
//	Unit       - the description of one ad-hoc translation unit
//	Compiled   - a relocated Unit, kept alive for symbol extraction
//
// # Compilation Flow
//
//  1. NewState() creates a context configured for in-memory output.
//  2. Options, preprocessor defines, search paths, and source are applied in
//     request order: library paths, libraries, include paths, then the unit.
//  3. Host symbols (memcpy, memset, the boundary conversion helpers, and the
//     dlopen family on POSIX) are injected so generated and user C can link
//     against them.
//  4. Relocation is two-phase: a null destination returns the required size,
//     then the code is written into a fresh ExecBuffer.
//  5. Entry points are extracted by name with Symbol().
//
// # Diagnostics
//
// The compiler reports errors as raw text through a per-state sink. Messages
// occasionally carry leading garbage bytes from the compiler's internal
// buffering and are trimmed to the first printable ASCII byte before storing.
// Diagnostics accumulate per unit rather than aborting on the first; any
// accumulated diagnostic fails the unit, and Err() aggregates all of them
// into a single report in arrival order.
//
// # Write Protection
//
// On platforms that enforce write-protected JIT pages the relocation write
// happens inside WithWritable, which lifts protection for the calling thread
// and unconditionally restores it on every exit path. The toggle is
// process-visible state with no ordering guarantee across threads, so
// concurrent compilation must be serialized by the caller.
//
// # Ownership
//
// A State compiles exactly one unit. The ExecBuffer produced by relocation
// is independent of the State: extracted symbol addresses stay valid after
// the State is closed, for as long as the buffer lives. Compiled bundles the
// two for callers that extract symbols lazily.
//
// This package requires cgo and a POSIX platform.
package engine
