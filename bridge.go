package nativeruntime

import (
	"github.com/wippyai/native-runtime/abi"
)

// Callable is the host-side object model the bridge dispatches callbacks
// into. Implementations receive boundary-encoded argument words and return
// one encoded result; void callbacks return abi.Undefined.
type Callable interface {
	Call(args []abi.Value) abi.Value
}

// CallableFunc adapts a plain function to the Callable interface.
type CallableFunc func(args []abi.Value) abi.Value

func (f CallableFunc) Call(args []abi.Value) abi.Value {
	return f(args)
}

// Dispatcher hands work to the runtime's owning thread. Threadsafe callback
// trampolines enqueue here from arbitrary native threads and return
// immediately; there is no result channel.
type Dispatcher interface {
	Enqueue(fn func())
}
