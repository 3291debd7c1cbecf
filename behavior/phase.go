package behavior

import "fmt"

// Phase is the lifecycle classification every domain state maps to.
type Phase int

const (
	Start Phase = iota
	Running
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) Valid() bool { return p >= Start && p <= Failed }

// Terminal reports whether the phase ends a non-continuous behavior.
func (p Phase) Terminal() bool { return p == Completed || p == Failed }

// ParsePhase is the inverse of String.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "start":
		return Start, nil
	case "running":
		return Running, nil
	case "completed":
		return Completed, nil
	case "failed":
		return Failed, nil
	}
	return 0, fmt.Errorf("%w: unknown phase %q", ErrInvalidDeclaration, s)
}

// State is a behavior-specific state name such as "aiming".
type State string

// Pseudo-states every behavior declares up front.
const (
	StateStart     State = "start"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)
