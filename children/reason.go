package children

import "fmt"

// ReasonKind says why a container is terminating.
type ReasonKind int32

const (
	// UserRequest is the default: a child was stopped on request.
	UserRequest ReasonKind = iota
	// Recreation means the parent restarts once its children are gone.
	Recreation
	// Creation means the parent finishes creating itself once its children are gone.
	Creation
	// Termination means the parent stops once its children are gone.
	Termination
)

func (k ReasonKind) String() string {
	switch k {
	case UserRequest:
		return "user-request"
	case Recreation:
		return "recreation"
	case Creation:
		return "creation"
	case Termination:
		return "termination"
	default:
		return fmt.Sprintf("reason(%d)", int32(k))
	}
}

// SuspendReason is the termination reason stored in a terminating container.
type SuspendReason struct {
	Kind ReasonKind
	// Cause is set for Recreation.
	Cause error
}

func UserRequestReason() SuspendReason { return SuspendReason{Kind: UserRequest} }

func RecreationReason(cause error) SuspendReason {
	return SuspendReason{Kind: Recreation, Cause: cause}
}

func CreationReason() SuspendReason { return SuspendReason{Kind: Creation} }

func TerminationReason() SuspendReason { return SuspendReason{Kind: Termination} }

// IsWaitingForChildren reports whether the owner is parked until its children are gone
// before it can continue recreating or creating itself.
func (r SuspendReason) IsWaitingForChildren() bool {
	return r.Kind == Recreation || r.Kind == Creation
}

func (r SuspendReason) String() string {
	if r.Cause != nil {
		return fmt.Sprintf("%s(%v)", r.Kind, r.Cause)
	}
	return r.Kind.String()
}
