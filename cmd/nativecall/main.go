package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	nativeruntime "github.com/wippyai/native-runtime"
	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/runtime"
)

func main() {
	var (
		manifest    = flag.String("manifest", "", "Path to TOML manifest describing the symbols")
		libPath     = flag.String("lib", "", "Shared library to open (overrides the manifest)")
		srcPath     = flag.String("src", "", "C source file to compile (overrides the manifest)")
		defines     = flag.String("define", "", "Preprocessor defines (NAME=VAL,NAME2=VAL2)")
		callName    = flag.String("call", "", "Symbol to call (optional when only one is bound)")
		callArgs    = flag.String("args", "", "Call arguments (comma-separated)")
		list        = flag.Bool("list", false, "List bound symbols and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *manifest == "" {
		fmt.Fprintln(os.Stderr, "Usage: nativecall -manifest <ffi.toml> [-call name] [-args v1,v2,...]")
		fmt.Fprintln(os.Stderr, "       nativecall -manifest <ffi.toml> -list")
		fmt.Fprintln(os.Stderr, "       nativecall -manifest <ffi.toml> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*manifest, *libPath, *srcPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*manifest, *libPath, *srcPath, *defines, *callName, *callArgs, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadManifest reads a request manifest and applies command-line overrides.
func loadManifest(path, libOverride, srcOverride string) (*runtime.Request, error) {
	var req runtime.Request
	if _, err := toml.DecodeFile(path, &req); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if libOverride != "" {
		req.Library = runtime.StringList{libOverride}
	}
	if srcOverride != "" {
		req.Source = srcOverride
	}
	return &req, nil
}

func run(manifest, libPath, srcPath, defineStr, callName, argStr string, listOnly bool) error {
	req, err := loadManifest(manifest, libPath, srcPath)
	if err != nil {
		return err
	}

	if defineStr != "" {
		if req.Define == nil {
			req.Define = make(map[string]string)
		}
		for _, kv := range strings.Split(defineStr, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				req.Define[parts[0]] = parts[1]
			}
		}
	}

	rt := runtime.New(runtime.Config{})
	defer rt.Close()

	lib, err := rt.Load(req)
	if err != nil {
		return err
	}
	defer lib.Close()

	names := lib.Symbols()
	defs := lib.Definitions()

	fmt.Printf("Manifest: %s\n", manifest)
	if req.Source != "" {
		fmt.Printf("Compiled: %s\n", req.Source)
	} else if len(req.Library) > 0 {
		fmt.Printf("Library: %s\n", req.Library[0])
	} else {
		fmt.Printf("Library: (running process)\n")
	}

	fmt.Printf("\nBound symbols:\n")
	for _, name := range names {
		fmt.Printf("  %s%s\n", name, formatSig(defs[name]))
	}

	if listOnly {
		return nil
	}

	if callName == "" {
		if len(names) == 1 {
			callName = names[0]
		} else {
			fmt.Printf("\nNo symbol specified. Use -call to pick one.\n")
			return nil
		}
	}

	sig, ok := defs[callName]
	if !ok {
		return fmt.Errorf("symbol %q is not bound", callName)
	}

	args, cleanup, err := parseArgs(argStr, sig)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Printf("\nCalling %s(%s)...\n", callName, argStr)
	out, err := lib.Call(callName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", callName, err)
	}

	fmt.Printf("Result: %s\n", formatResult(out, sig.Returns))
	return nil
}

// parseArgs converts comma-separated argument text into boundary values.
// The cleanup releases any interned 64-bit cells.
func parseArgs(argStr string, sig abi.Signature) ([]abi.Value, func(), error) {
	var fields []string
	if argStr != "" {
		fields = strings.Split(argStr, ",")
	}
	if len(fields) != sig.Arity() {
		return nil, nil, fmt.Errorf("expected %d arguments, got %d", sig.Arity(), len(fields))
	}

	args := make([]abi.Value, len(fields))
	var boxed []abi.Value
	for i, field := range fields {
		v, err := parseValue(strings.TrimSpace(field), sig.Args[i])
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
		if v.IsCell() {
			boxed = append(boxed, v)
		}
	}
	cleanup := func() {
		for _, v := range boxed {
			runtime.ReleaseBoxed(v)
		}
	}
	return args, cleanup, nil
}

// parseValue converts one argument by its declared boundary type.
func parseValue(s string, t abi.Type) (abi.Value, error) {
	switch t {
	case abi.Bool:
		return abi.EncodeBool(s == "true" || s == "1"), nil
	case abi.Char, abi.I8, abi.I16, abi.I32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return abi.Undefined, err
		}
		return abi.EncodeI32(int32(v)), nil
	case abi.U8, abi.U16, abi.U32:
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return abi.Undefined, err
		}
		return abi.EncodeU32(uint32(v)), nil
	case abi.I64, abi.I64Fast:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return abi.Undefined, err
		}
		return runtime.BoxI64(v), nil
	case abi.U64, abi.U64Fast:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return abi.Undefined, err
		}
		return runtime.BoxU64(v), nil
	case abi.Float:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return abi.Undefined, err
		}
		return abi.EncodeF32(float32(v)), nil
	case abi.Double:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return abi.Undefined, err
		}
		return abi.EncodeF64(v), nil
	case abi.Pointer, abi.Function:
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return abi.Undefined, err
		}
		return abi.EncodePtr(uintptr(v)), nil
	default:
		return abi.Undefined, fmt.Errorf("cannot build a %s argument from text", t)
	}
}

// formatResult renders a returned value by its declared boundary type.
func formatResult(v abi.Value, t abi.Type) string {
	switch t {
	case abi.Void:
		return "(void)"
	case abi.Bool:
		return strconv.FormatBool(v.Bool())
	case abi.Char, abi.I8, abi.I16, abi.I32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case abi.U8, abi.U16, abi.U32:
		return strconv.FormatUint(uint64(v.Uint32()), 10)
	case abi.I64, abi.I64Fast:
		n, ok := runtime.UnboxI64(v)
		if !ok {
			return fmt.Sprintf("(undecodable %v)", v)
		}
		runtime.ReleaseBoxed(v)
		return strconv.FormatInt(n, 10)
	case abi.U64, abi.U64Fast:
		n, ok := runtime.UnboxU64(v)
		if !ok {
			return fmt.Sprintf("(undecodable %v)", v)
		}
		runtime.ReleaseBoxed(v)
		return strconv.FormatUint(n, 10)
	case abi.Float:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case abi.Double:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case abi.CString:
		if v.IsNull() {
			return "(null)"
		}
		return strconv.Quote(nativeruntime.NewView(v.Ptr()).CString(0))
	case abi.Pointer, abi.Function:
		if v.IsNull() {
			return "(null)"
		}
		return fmt.Sprintf("0x%x", v.Ptr())
	default:
		return v.String()
	}
}

// formatSig renders "(i32, i32) -> i32" for a symbol listing.
func formatSig(sig abi.Signature) string {
	parts := make([]string, len(sig.Args))
	for i, a := range sig.Args {
		parts[i] = a.String()
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if sig.Returns != abi.Void {
		out += " -> " + sig.Returns.String()
	}
	if sig.ThreadSafe {
		out += " [threadsafe]"
	}
	return out
}

// sortedNames returns map keys in stable order.
func sortedNames(defs map[string]abi.Signature) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
