package runtime

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/native-runtime/abi"
	"github.com/wippyai/native-runtime/errors"
)

// SymbolSpec declares one native function: its boundary types, whether its
// callback form may be invoked from foreign threads, and an optional raw
// address that bypasses library resolution.
type SymbolSpec struct {
	Args       []any  `toml:"args" cbor:"args"`
	Returns    any    `toml:"returns" cbor:"returns"`
	ThreadSafe bool   `toml:"threadsafe" cbor:"threadsafe"`
	Ptr        uint64 `toml:"ptr" cbor:"ptr,omitempty"`
}

// StringList decodes from either a single string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalTOML(v any) error {
	out, err := coerceStrings(v)
	if err != nil {
		return err
	}
	*l = out
	return nil
}

func (l *StringList) UnmarshalCBOR(data []byte) error {
	var single string
	if err := cbor.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := cbor.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func coerceStrings(v any) (StringList, error) {
	switch t := v.(type) {
	case string:
		return StringList{t}, nil
	case []any:
		out := make(StringList, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Config(fmt.Sprintf("expected string, got %T", item))
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return StringList(t), nil
	default:
		return nil, errors.Config(fmt.Sprintf("expected string or list of strings, got %T", v))
	}
}

// Request describes a load: which symbols to bind and where their
// definitions come from. Source selects compile mode, a library selects
// open mode, and raw addresses alone select link mode.
type Request struct {
	Symbols map[string]SymbolSpec `toml:"symbols" cbor:"symbols"`
	Library StringList            `toml:"library" cbor:"library,omitempty"`
	Include StringList            `toml:"include" cbor:"include,omitempty"`
	Source  string                `toml:"source" cbor:"source,omitempty"`
	Define  map[string]string     `toml:"define" cbor:"define,omitempty"`
}

type loadMode uint8

const (
	modeOpen loadMode = iota
	modeLink
	modeCC
)

// mode picks the load mode for a request: source wins, then an explicit
// library, then raw addresses for every symbol. A request with none of
// those opens the running process.
func (r *Request) mode() loadMode {
	if r.Source != "" {
		return modeCC
	}
	if len(r.Library) > 0 {
		return modeOpen
	}
	for _, spec := range r.Symbols {
		if spec.Ptr == 0 {
			return modeOpen
		}
	}
	if len(r.Symbols) > 0 {
		return modeLink
	}
	return modeOpen
}

// buildSymbols validates every declared symbol and returns them in name
// order alongside the lookup map. Raw addresses from the request are
// attached here; unresolved symbols carry a nil native pointer until their
// mode resolves them.
func buildSymbols(req *Request) ([]string, map[string]*symbol, error) {
	if len(req.Symbols) == 0 {
		return nil, nil, errors.EmptySymbols()
	}

	names := make([]string, 0, len(req.Symbols))
	for name := range req.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	syms := make(map[string]*symbol, len(names))
	for _, name := range names {
		spec := req.Symbols[name]
		sig, err := abi.NewSignature(spec.Args, spec.Returns, spec.ThreadSafe)
		if err != nil {
			return nil, nil, errors.New(errors.PhaseConfig, errors.KindBadRequest).
				Symbol(name).
				Cause(err).
				Detail("invalid symbol definition").
				Build()
		}
		syms[name] = newSymbol(name, sig, unsafe.Pointer(uintptr(spec.Ptr)))
	}
	return names, syms, nil
}
