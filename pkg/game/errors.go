package game

import (
	"fmt"
)

type ViolationKind int

const (
	InvalidTransition ViolationKind = iota + 1
	UnknownQuestion
	NoActiveQuestion
	UnknownTeam
)

func (k ViolationKind) String() string {
	switch k {
	case InvalidTransition:
		return "InvalidTransition"
	case UnknownQuestion:
		return "UnknownQuestion"
	case NoActiveQuestion:
		return "NoActiveQuestion"
	case UnknownTeam:
		return "UnknownTeam"
	default:
		return fmt.Sprintf("ViolationKind(%d)", int(k))
	}
}

func ParseViolationKind(s string) (ViolationKind, bool) {
	for k := InvalidTransition; k <= UnknownTeam; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// ProtocolViolation is returned for a command the current phase does not
// accept. The session is left exactly as it was.
type ProtocolViolation struct {
	Kind    ViolationKind
	Phase   Phase
	Command Command
	Detail  string
}

var (
	ErrInvalidTransition = &ProtocolViolation{Kind: InvalidTransition}
	ErrUnknownQuestion   = &ProtocolViolation{Kind: UnknownQuestion}
	ErrNoActiveQuestion  = &ProtocolViolation{Kind: NoActiveQuestion}
	ErrUnknownTeam       = &ProtocolViolation{Kind: UnknownTeam}
)

func violation(kind ViolationKind, phase Phase, cmd Command, format string, a ...interface{}) *ProtocolViolation {
	return &ProtocolViolation{Kind: kind, Phase: phase, Command: cmd, Detail: fmt.Sprintf(format, a...)}
}

func (e *ProtocolViolation) Error() string {
	if e.Command.Kind == KindUnknown && e.Detail == "" {
		return "protocol violation: " + e.Kind.String()
	}
	msg := fmt.Sprintf("protocol violation: %s: %s in %s", e.Kind, e.Command, e.Phase)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches any ProtocolViolation of the same kind.
func (e *ProtocolViolation) Is(target error) bool {
	t, ok := target.(*ProtocolViolation)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
