package realtime

// State is the current phase of the realtime link. Exactly one state
// holds at a time; Stopped is terminal and reachable from any state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Authenticated
	Listening
	BackingOff
	Stopped
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticated:
		return "authenticated"
	case Listening:
		return "listening"
	case BackingOff:
		return "backing_off"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
