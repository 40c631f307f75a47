package arduinosa

import "fmt"

// State is the connection state of a Device.
type State int

const (
	Disconnected State = iota
	Connecting
	IdentityUnverified
	Ready
	AwaitingSample
	Resetting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case IdentityUnverified:
		return "IdentityUnverified"
	case Ready:
		return "Ready"
	case AwaitingSample:
		return "AwaitingSample"
	case Resetting:
		return "Resetting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// validTransitions lists the edges of the connection state machine.
// Disconnected is reachable from everywhere through Close.
var validTransitions = map[State][]State{
	Disconnected:       {Connecting},
	Connecting:         {IdentityUnverified, Ready},
	IdentityUnverified: {Ready},
	Ready:              {AwaitingSample},
	AwaitingSample:     {Ready, Resetting},
	Resetting:          {AwaitingSample},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to State) bool {
	if to == Disconnected || from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
