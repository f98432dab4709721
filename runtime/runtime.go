package runtime

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	nativeruntime "github.com/wippyai/native-runtime"
	"github.com/wippyai/native-runtime/engine"
	"github.com/wippyai/native-runtime/errors"
)

// compileMu serializes every embedded-compiler run in the process.
// Relocation toggles write protection that is visible process-wide, so
// compilations from different runtimes must not overlap.
var compileMu sync.Mutex

// Config carries runtime-wide settings. The zero value is usable.
type Config struct {
	// Dispatcher receives threadsafe callback invocations. When nil the
	// runtime starts an owned loop and stops it on Close.
	Dispatcher nativeruntime.Dispatcher

	// Logger replaces the package logger when set.
	Logger *zap.Logger

	// Options holds extra compiler flags applied to every compile.
	Options string

	// IncludePaths and LibraryPaths extend the search paths of compile
	// mode, after any paths the request itself names.
	IncludePaths []string
	LibraryPaths []string

	// ResourceDir anchors relative library names before the loader's own
	// search order is consulted.
	ResourceDir string
}

// Runtime binds native symbols for a managed caller. Loads are safe to
// issue concurrently; compiler work is serialized behind the process-wide
// lock.
type Runtime struct {
	closeMu     sync.RWMutex
	dispatcher  nativeruntime.Dispatcher
	loop        *Loop
	options     string
	includes    []string
	libPaths    []string
	resourceDir string
	closed      bool
}

// New creates a runtime from cfg.
func New(cfg Config) *Runtime {
	if cfg.Logger != nil {
		SetLogger(cfg.Logger)
	}
	r := &Runtime{
		dispatcher:  cfg.Dispatcher,
		options:     cfg.Options,
		includes:    cfg.IncludePaths,
		libPaths:    cfg.LibraryPaths,
		resourceDir: cfg.ResourceDir,
	}
	if r.dispatcher == nil {
		r.loop = NewLoop()
		r.dispatcher = r.loop
	}
	return r
}

// Close shuts down the runtime and its owned dispatch loop. Libraries and
// callbacks produced by this runtime are closed separately, before the
// runtime. Safe to call more than once.
func (r *Runtime) Close() error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.loop != nil {
		r.loop.Stop()
	}
	return nil
}

// Load binds a request by its natural mode: compile when source text is
// named, open when a library is named or any symbol lacks an address,
// link when every symbol carries one.
func (r *Runtime) Load(req *Request) (*Library, error) {
	switch req.mode() {
	case modeCC:
		return r.CC(req)
	case modeLink:
		return r.Link(req)
	default:
		return r.Open(req)
	}
}

// Open resolves the request's symbols in a shared library and compiles a
// wrapper for each. An empty library name opens the running process. Any
// failure leaves nothing bound.
func (r *Runtime) Open(req *Request) (*Library, error) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return nil, errors.Closed("runtime")
	}
	if len(req.Library) > 1 {
		return nil, errors.Config("open mode takes a single library")
	}

	names, syms, err := buildSymbols(req)
	if err != nil {
		return nil, err
	}

	var (
		dl   *dlHandle
		name string
	)
	if len(req.Library) == 0 || req.Library[0] == "" {
		dl, err = dlOpenSelf()
	} else {
		name = req.Library[0]
		dl, err = openLibrary(r.resourceDir, name)
	}
	if err != nil {
		return nil, err
	}

	lib := &Library{name: name, dl: dl, names: names, symbols: syms}
	err = r.compileSymbols(lib, func(sym *symbol) error {
		if sym.native == nil {
			p, err := dl.symbol(sym.name)
			if err != nil {
				return err
			}
			sym.native = p
		}
		return sym.compileCallOut(r.options)
	})
	if err != nil {
		lib.Close()
		return nil, err
	}

	Logger().Debug("library opened",
		zap.String("library", lib.label()),
		zap.Int("symbols", len(names)))
	return lib, nil
}

// Link binds symbols whose native addresses the caller already holds.
// Every symbol must carry a raw address.
func (r *Runtime) Link(req *Request) (*Library, error) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return nil, errors.Closed("runtime")
	}

	names, syms, err := buildSymbols(req)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if syms[name].native == nil {
			return nil, errors.BadSymbol(name, "link mode requires a raw address")
		}
	}

	lib := &Library{names: names, symbols: syms}
	err = r.compileSymbols(lib, func(sym *symbol) error {
		return sym.compileCallOut(r.options)
	})
	if err != nil {
		lib.Close()
		return nil, err
	}
	return lib, nil
}

// CC compiles a C source file in-process and binds the request's symbols
// to its exported definitions. The compiled unit stays alive inside the
// returned library. A symbol with a raw address skips extraction and is
// bound to that address instead.
func (r *Runtime) CC(req *Request) (*Library, error) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return nil, errors.Closed("runtime")
	}
	if req.Source == "" {
		return nil, errors.Config("compile mode requires a source file")
	}

	names, syms, err := buildSymbols(req)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.Source); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindBadRequest).
			Path(req.Source).
			Cause(err).
			Detail("source file not found").
			Build()
	}

	unit := engine.Unit{
		Name:         filepath.Base(req.Source),
		File:         req.Source,
		Options:      r.options,
		Defines:      req.Define,
		Libraries:    req.Library,
		LibraryPaths: r.libPaths,
		IncludePaths: append(append([]string{}, req.Include...), r.includes...),
	}

	compileMu.Lock()
	compiled, err := engine.Compile(unit)
	compileMu.Unlock()
	if err != nil {
		return nil, err
	}

	lib := &Library{name: req.Source, unit: compiled, names: names, symbols: syms}
	err = r.compileSymbols(lib, func(sym *symbol) error {
		if sym.native == nil {
			p, err := compiled.Symbol(sym.name)
			if err != nil {
				return err
			}
			sym.native = p
		}
		return sym.compileCallOut(r.options)
	})
	if err != nil {
		lib.Close()
		return nil, err
	}

	Logger().Debug("source unit bound",
		zap.String("source", req.Source),
		zap.Int("symbols", len(names)))
	return lib, nil
}

// compileSymbols resolves and compiles every symbol under the compile
// lock, in name order. The first failure aborts the rest.
func (r *Runtime) compileSymbols(lib *Library, resolve func(*symbol) error) error {
	compileMu.Lock()
	defer compileMu.Unlock()
	for _, name := range lib.names {
		if err := resolve(lib.symbols[name]); err != nil {
			return err
		}
	}
	return nil
}

// openLibrary tries each candidate path for a library name and keeps the
// loader's report from the last failed attempt.
func openLibrary(resourceDir, name string) (*dlHandle, error) {
	var lastErr error
	for _, path := range libraryCandidates(resourceDir, name) {
		dl, err := dlOpen(path)
		if err == nil {
			return dl, nil
		}
		Logger().Debug("library candidate failed",
			zap.String("path", path), zap.Error(err))
		lastErr = err
	}
	return nil, lastErr
}

// libraryCandidates expands a library name into the load paths tried in
// order: anchored in the resource directory, the literal name via the
// loader search path, then explicitly relative to the working directory.
// A name without an extension gets the platform suffix first.
func libraryCandidates(resourceDir, name string) []string {
	if filepath.Ext(name) == "" {
		name += libSuffix
	}
	var out []string
	if resourceDir != "" && !filepath.IsAbs(name) {
		out = append(out, filepath.Join(resourceDir, name))
	}
	out = append(out, name)
	if !filepath.IsAbs(name) {
		out = append(out, "./"+name)
	}
	return out
}
