package engine

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/native-runtime/errors"
)

// Unit describes one ad-hoc translation unit. Exactly one of File or Source
// supplies the code.
type Unit struct {
	// Name labels the unit in diagnostics; defaults to File.
	Name string

	// File is a path to a C source file.
	File string

	// Source is inline source text, used when File is empty.
	Source string

	// Options holds command-line style compiler flags.
	Options string

	// Defines are preprocessor defines applied before compilation.
	Defines map[string]string

	LibraryPaths    []string
	Libraries       []string
	IncludePaths    []string
	SysIncludePaths []string

	// Symbols are host-resident addresses injected as linkable externs,
	// alongside the built-in support symbols.
	Symbols map[string]unsafe.Pointer
}

func (u Unit) label() string {
	if u.Name != "" {
		return u.Name
	}
	if u.File != "" {
		return u.File
	}
	return "<source>"
}

// Compiled is a relocated unit plus the state that produced it, kept alive
// so exported symbols can be extracted until Close.
type Compiled struct {
	name  string
	state *State
	code  *ExecBuffer
}

// Compile runs the whole driver sequence for one unit: options and defines,
// library paths, libraries, include paths, the source itself, support and
// host symbol injection, then two-phase relocation. Any accumulated
// diagnostic aborts the remaining steps and is returned as one aggregated
// report.
func Compile(u Unit) (*Compiled, error) {
	name := u.label()
	if u.File == "" && u.Source == "" {
		return nil, errors.Config("compile unit has neither a file nor source text")
	}

	s, err := NewState()
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	if u.Options != "" {
		s.SetOptions(u.Options)
	}
	for k, v := range u.Defines {
		s.DefineSymbol(k, v)
	}
	if err := s.Err(name); err != nil {
		return nil, err
	}

	for _, dir := range u.LibraryPaths {
		s.AddLibraryPath(dir)
	}
	if err := s.Err(name); err != nil {
		return nil, err
	}
	for _, lib := range u.Libraries {
		s.AddLibrary(lib)
	}
	if err := s.Err(name); err != nil {
		return nil, err
	}
	for _, dir := range u.IncludePaths {
		s.AddIncludePath(dir)
	}
	for _, dir := range u.SysIncludePaths {
		s.AddSysIncludePath(dir)
	}
	if err := s.Err(name); err != nil {
		return nil, err
	}

	if u.File != "" {
		s.AddFile(u.File)
	} else {
		s.CompileString(u.Source)
	}
	if err := s.Err(name); err != nil {
		return nil, err
	}

	s.AddBuiltins()
	for sym, ptr := range u.Symbols {
		s.AddSymbol(sym, ptr)
	}
	if err := s.Err(name); err != nil {
		return nil, err
	}

	code, rerr := s.Relocate()
	if err := s.Err(name); err != nil {
		if code != nil {
			code.Close()
		}
		return nil, err
	}
	if rerr != nil {
		return nil, rerr
	}

	Logger().Debug("compiled unit",
		zap.String("unit", name),
		zap.Int("code_size", code.Len()))

	ok = true
	return &Compiled{name: name, state: s, code: code}, nil
}

// Symbol resolves an exported name inside the relocated unit.
func (c *Compiled) Symbol(name string) (unsafe.Pointer, error) {
	if c.state == nil {
		return nil, errors.Closed("compiled unit")
	}
	p := c.state.Symbol(name)
	if p == nil {
		return nil, errors.SymbolMissing(name, c.name)
	}
	return p, nil
}

// Code exposes the relocated buffer. Ownership stays with the Compiled.
func (c *Compiled) Code() *ExecBuffer {
	return c.code
}

// Close releases the compiler state and the relocated code. Safe to call
// more than once.
func (c *Compiled) Close() error {
	var firstErr error
	if c.state != nil {
		if err := c.state.Close(); err != nil {
			firstErr = err
		}
		c.state = nil
	}
	if c.code != nil {
		if err := c.code.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.code = nil
	}
	return firstErr
}
