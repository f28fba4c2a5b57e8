package engine

import "fmt"

// State is an engine lifecycle state. Transitions are monotonic:
// Running → ShuttingDown → Terminated.
type State int32

const (
	Running State = iota
	ShuttingDown
	Terminated
)

var stateNames = map[State]string{
	Running:      "running",
	ShuttingDown: "shutting_down",
	Terminated:   "terminated",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// IsShutdown reports whether shutdown has been requested.
func (s State) IsShutdown() bool { return s >= ShuttingDown }

// IsTerminated reports whether the engine reached its terminal state.
func (s State) IsTerminated() bool { return s == Terminated }

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
