package engine

// Result is the cooperative result code shared between the library and the
// host for one dispatched event. Higher values take precedence: once a
// participant has raised the code to ResultSupersede the host must skip its
// own default handling, and nothing may lower it again within the tick.
type Result int32

const (
	ResultUnset Result = iota
	ResultIgnored
	ResultHandled
	ResultOverride
	ResultSupersede
)

func (r Result) String() string {
	switch r {
	case ResultUnset:
		return "unset"
	case ResultIgnored:
		return "ignored"
	case ResultHandled:
		return "handled"
	case ResultOverride:
		return "override"
	case ResultSupersede:
		return "supersede"
	default:
		return "unknown"
	}
}

// Signal threads the per-tick override decision through every component that
// races on the same raw input event. It is created by the Bridge entry point
// for each host event and translated back to the host's return convention
// when the entry point returns. First writer wins: Raise only escalates.
type Signal struct {
	result Result
}

// Raise escalates the signal to r if r outranks the current value.
func (s *Signal) Raise(r Result) {
	if r > s.result {
		s.result = r
	}
}

// Result returns the current value of the signal.
func (s *Signal) Result() Result {
	return s.result
}

// Superseded reports whether an earlier participant already claimed the
// event. Components must check this before acting and never double-process.
func (s *Signal) Superseded() bool {
	return s.result == ResultSupersede
}
