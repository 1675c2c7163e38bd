package types

// State represents the subscriber runtime lifecycle state.
//
// States follow a strict progression; no transition skips a state and
// Stopped is terminal for a given Subscriber instance:
//
//	StateNotStarted → StateStarting → StateRunning → StateStopped
//
// The transition to StateRunning happens exactly once, after the connection
// has confirmed that every registered subscribe command was issued and the
// receive loop is about to begin. The transition to StateStopped happens
// when the receive loop returns, either because every subscription was
// removed or because the loop failed.
type State int

const (
	// StateNotStarted is the initial state before Run or RunAsync is invoked.
	StateNotStarted State = iota

	// StateStarting indicates subscribe commands are being issued.
	StateStarting

	// StateRunning indicates the receive loop is live and dispatching events.
	StateRunning

	// StateStopped indicates the receive loop has returned. Terminal: a new
	// Subscriber must be created to subscribe again.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
