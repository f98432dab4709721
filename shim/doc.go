// Package shim generates the C source for marshaling wrappers: call-out
// units that let the host invoke a native function through an encoded call
// frame, and call-in units whose compiled trampoline lets native code
// dispatch back into a registered host callback. Generation is pure string
// building; compilation belongs to the engine package.
package shim
