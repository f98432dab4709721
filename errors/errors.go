package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig   Phase = "config"   // request/signature validation
	PhaseGenerate Phase = "generate" // shim source generation
	PhaseCompile  Phase = "compile"  // embedded compiler run
	PhaseLink     Phase = "link"     // library open / symbol resolution
	PhaseRelocate Phase = "relocate" // machine code relocation
	PhaseCall     Phase = "call"     // invoking a compiled entry
	PhaseCallback Phase = "callback" // callback registration/dispatch
	PhaseClose    Phase = "close"    // teardown
)

// Kind categorizes the error
type Kind string

const (
	KindUnknownType      Kind = "unknown_type"
	KindInvalidType      Kind = "invalid_type"
	KindBadRequest       Kind = "bad_request"
	KindEmptySymbols     Kind = "empty_symbols"
	KindDiagnostics      Kind = "diagnostics"
	KindLibraryOpen      Kind = "library_open"
	KindSymbolMissing    Kind = "symbol_missing"
	KindRelocation       Kind = "relocation"
	KindAllocation       Kind = "allocation"
	KindNotCallable      Kind = "not_callable"
	KindThreadsafeReturn Kind = "threadsafe_return"
	KindClosed           Kind = "closed"
	KindInternal         Kind = "internal"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Symbol  string
	Path    string
	Syscall string
	Code    int
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Symbol != "" {
		b.WriteString(" for ")
		b.WriteString(e.Symbol)
	}
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Syscall != "" {
		b.WriteString(" (")
		b.WriteString(e.Syscall)
		if e.Code != 0 {
			fmt.Fprintf(&b, " errno %d", e.Code)
		}
		b.WriteByte(')')
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Symbol sets the offending symbol or request key
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Path sets the library or source file path
func (b *Builder) Path(p string) *Builder {
	b.err.Path = p
	return b
}

// Syscall sets the failing system facility (e.g. "dlopen")
func (b *Builder) Syscall(name string, code int) *Builder {
	b.err.Syscall = name
	b.err.Code = code
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownType creates an error for an unrecognized type name
func UnknownType(name string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindUnknownType,
		Detail: fmt.Sprintf("unknown type name %q", name),
		Value:  name,
	}
}

// InvalidTypeID creates an error for a numeric type id outside the closed range
func InvalidTypeID(id, max int) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidType,
		Detail: fmt.Sprintf("type id %d out of range (max %d)", id, max),
		Value:  id,
	}
}

// BadSymbol creates a request-shape error naming the offending key
func BadSymbol(key, detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindBadRequest,
		Symbol: key,
		Detail: detail,
	}
}

// EmptySymbols creates an error for a request with no symbols
func EmptySymbols() *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindEmptySymbols,
		Detail: "no symbols requested",
	}
}

// LibraryOpen creates a structured library-open failure
func LibraryOpen(path, message, syscall string, code int) *Error {
	return &Error{
		Phase:   PhaseLink,
		Kind:    KindLibraryOpen,
		Path:    path,
		Syscall: syscall,
		Code:    code,
		Detail:  message,
	}
}

// SymbolMissing creates an error for a symbol absent from its library or unit
func SymbolMissing(name, where string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindSymbolMissing,
		Symbol: name,
		Path:   where,
		Detail: fmt.Sprintf("symbol %q not found", name),
	}
}

// RelocationFailed creates a relocation integrity error
func RelocationFailed(detail string) *Error {
	return &Error{
		Phase:  PhaseRelocate,
		Kind:   KindRelocation,
		Detail: detail,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
	}
}

// NotCallable creates an error for a callback target that is not callable
func NotCallable() *Error {
	return &Error{
		Phase:  PhaseCallback,
		Kind:   KindNotCallable,
		Detail: "callback target is not callable",
	}
}

// ThreadsafeReturn creates an error for a threadsafe callback with a non-void return
func ThreadsafeReturn(typeName string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindThreadsafeReturn,
		Detail: fmt.Sprintf("threadsafe callback must return void, got %s", typeName),
		Value:  typeName,
	}
}

// Closed creates an error for operations on a closed handle
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Config creates a generic configuration error
func Config(detail string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindBadRequest,
		Detail: detail,
	}
}

// Internal wraps a compiler-integrity failure
func Internal(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInternal,
		Detail: detail,
		Cause:  cause,
	}
}

// CompileError aggregates every diagnostic one compile unit emitted.
// Diagnostics are stored trimmed, in emission order, and are never dropped.
type CompileError struct {
	Unit        string
	Diagnostics []string
}

// NewCompileError creates an aggregate from accumulated diagnostics
func NewCompileError(unit string, diagnostics []string) *CompileError {
	return &CompileError{
		Unit:        unit,
		Diagnostics: diagnostics,
	}
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("compilation of %s failed", e.Unit)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors while compiling %s", len(e.Diagnostics), e.Unit)
	for _, d := range e.Diagnostics {
		b.WriteByte('\n')
		b.WriteString(d)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *CompileError) Is(target error) bool {
	_, ok := target.(*CompileError)
	return ok
}
