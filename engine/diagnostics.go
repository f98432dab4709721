package engine

import (
	"github.com/wippyai/native-runtime/errors"
)

// FallbackDiagnostic is reported when the compiler signals failure without
// emitting a single message.
const FallbackDiagnostic = "tcc returned failure"

// diagnosticSink accumulates compiler messages for one State in arrival
// order. The compiler invokes it synchronously on the thread driving the
// compile entry points, so no locking is needed.
type diagnosticSink struct {
	messages []string
}

func (d *diagnosticSink) record(raw string) {
	d.messages = append(d.messages, trimDiagnostic(raw))
}

// trimDiagnostic drops the leading non-printable bytes the in-memory
// compiler occasionally leaves in front of a message.
func trimDiagnostic(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] > 0x20 && raw[i] < 0x7f {
			return raw[i:]
		}
	}
	return ""
}

// Diagnostics returns the trimmed messages accumulated so far, in order.
func (s *State) Diagnostics() []string {
	out := make([]string, len(s.sink.messages))
	copy(out, s.sink.messages)
	return out
}

// Failed reports whether the state has accumulated a diagnostic or observed
// a negative compiler status.
func (s *State) Failed() bool {
	return len(s.sink.messages) > 0 || s.status < 0
}

// Err aggregates the state's failure into a single report for the named
// unit, or returns nil when the state is clean. A negative status with no
// diagnostic yields the generic fallback message.
func (s *State) Err(unit string) error {
	if len(s.sink.messages) > 0 {
		return errors.NewCompileError(unit, s.Diagnostics())
	}
	if s.status < 0 {
		return errors.NewCompileError(unit, []string{FallbackDiagnostic})
	}
	return nil
}
