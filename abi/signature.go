package abi

import (
	"strings"

	"github.com/wippyai/native-runtime/errors"
)

// Signature describes one callable unit: its ordered parameter types, its
// return type, and whether the callback variant must be safe to enter from
// arbitrary native threads.
type Signature struct {
	Args       []Type
	Returns    Type
	ThreadSafe bool
}

// Arity returns the number of declared parameters.
func (s Signature) Arity() int {
	return len(s.Args)
}

// HasFloat reports whether any parameter or the return is floating point.
// Shim generation keys the math prelude on this.
func (s Signature) HasFloat() bool {
	if s.Returns.IsFloat() {
		return true
	}
	for _, a := range s.Args {
		if a.IsFloat() {
			return true
		}
	}
	return false
}

// Has64 reports whether any parameter or the return needs the slow 64-bit
// conversion helpers.
func (s Signature) Has64() bool {
	if s.Returns.Is64Bit() {
		return true
	}
	for _, a := range s.Args {
		if a.Is64Bit() {
			return true
		}
	}
	return false
}

// Validate checks the cross-field rules. A threadsafe signature must return
// void; the native caller gets no channel for a result.
func (s Signature) Validate() error {
	if s.ThreadSafe && s.Returns != Void {
		return errors.ThreadsafeReturn(s.Returns.String())
	}
	return nil
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString("fn(")
	for i, a := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(") ")
	b.WriteString(s.Returns.String())
	if s.ThreadSafe {
		b.WriteString(" threadsafe")
	}
	return b.String()
}

// ParseSignature resolves name selectors into a validated Signature. An
// empty returns selector defaults to void.
func ParseSignature(args []string, returns string, threadSafe bool) (Signature, error) {
	sig := Signature{
		Args:       make([]Type, 0, len(args)),
		Returns:    Void,
		ThreadSafe: threadSafe,
	}
	for _, a := range args {
		t, err := Parse(a)
		if err != nil {
			return Signature{}, err
		}
		sig.Args = append(sig.Args, t)
	}
	if returns != "" {
		t, err := Parse(returns)
		if err != nil {
			return Signature{}, err
		}
		sig.Returns = t
	}
	if err := sig.Validate(); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// NewSignature resolves mixed selectors (names or numeric ids) into a
// validated Signature. A nil returns selector defaults to void.
func NewSignature(args []any, returns any, threadSafe bool) (Signature, error) {
	sig := Signature{
		Args:       make([]Type, 0, len(args)),
		Returns:    Void,
		ThreadSafe: threadSafe,
	}
	for _, a := range args {
		t, err := Resolve(a)
		if err != nil {
			return Signature{}, err
		}
		sig.Args = append(sig.Args, t)
	}
	if returns != nil {
		t, err := Resolve(returns)
		if err != nil {
			return Signature{}, err
		}
		sig.Returns = t
	}
	if err := sig.Validate(); err != nil {
		return Signature{}, err
	}
	return sig, nil
}
