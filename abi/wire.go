package abi

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Definition wire form: signatures travel by numeric type id, the compact
// spelling the resolver accepts alongside names.
type wireSignature struct {
	Args       []uint8 `cbor:"a"`
	Returns    uint8   `cbor:"r"`
	ThreadSafe bool    `cbor:"t,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("abi: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeDefinitions serializes a symbol definition table to CBOR bytes.
func EncodeDefinitions(defs map[string]Signature) ([]byte, error) {
	wire := make(map[string]wireSignature, len(defs))
	for name, sig := range defs {
		ws := wireSignature{
			Args:       make([]uint8, len(sig.Args)),
			Returns:    uint8(sig.Returns),
			ThreadSafe: sig.ThreadSafe,
		}
		for i, a := range sig.Args {
			ws.Args[i] = uint8(a)
		}
		wire[name] = ws
	}
	return cborEncMode.Marshal(wire)
}

// DecodeDefinitions deserializes a symbol definition table from CBOR bytes.
// Every id is resolved through the closed numeric range, so corrupt tables
// fail instead of mapping to a default type.
func DecodeDefinitions(data []byte) (map[string]Signature, error) {
	var wire map[string]wireSignature
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("abi: unmarshal definitions: %w", err)
	}

	defs := make(map[string]Signature, len(wire))
	for name, ws := range wire {
		sig := Signature{ThreadSafe: ws.ThreadSafe}
		// Zero-arity stays nil so a decoded table compares equal to the
		// one that was encoded.
		if len(ws.Args) > 0 {
			sig.Args = make([]Type, 0, len(ws.Args))
		}
		for _, id := range ws.Args {
			t, err := FromID(int(id))
			if err != nil {
				return nil, fmt.Errorf("abi: definition %q: %w", name, err)
			}
			sig.Args = append(sig.Args, t)
		}
		ret, err := FromID(int(ws.Returns))
		if err != nil {
			return nil, fmt.Errorf("abi: definition %q: %w", name, err)
		}
		sig.Returns = ret
		if err := sig.Validate(); err != nil {
			return nil, fmt.Errorf("abi: definition %q: %w", name, err)
		}
		defs[name] = sig
	}
	return defs, nil
}
