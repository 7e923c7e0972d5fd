package monitor

// State is the capture state of a Monitor.
//
//	Idle                  --pause-->         Paused
//	Idle                  --self-write-->    SuppressingSelfWrite
//	SuppressingSelfWrite  --delay elapsed--> Idle
//	SuppressingSelfWrite  --pause-->         Paused
//	Paused                --resume-->        Idle
//
// A self-write while Paused leaves the state Paused. Changes are only
// captured in Idle.
type State int

const (
	Idle State = iota
	SuppressingSelfWrite
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SuppressingSelfWrite:
		return "suppressing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}
