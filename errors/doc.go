// Package errors provides structured error types for the native-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: offending symbol, library/source path,
// failing syscall with its code, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLink, errors.KindSymbolMissing).
//		Symbol("add").
//		Path("libm.so.6").
//		Detail("symbol not exported").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownType("i128")
//	err := errors.LibraryOpen("libplugin", "library failed to load", "dlopen", 2)
//
// Compiler diagnostics aggregate into CompileError, which preserves every
// message a translation unit emitted, in order.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
