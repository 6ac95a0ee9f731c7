package actor

import (
	"github.com/hedisam/actorcell/children"
	"github.com/hedisam/actorcell/sysmsg"
)

// Ref is a handle to an actor. Cells keep refs of their children without owning them.
type Ref = children.Ref

// Repointable is implemented by refs that exist before their actor starts running.
type Repointable interface {
	Ref
	IsStarted() bool
}

type userMessenger interface {
	Tell(message interface{}) error
}

type systemMessenger interface {
	sendSystemMessage(message sysmsg.SystemMessage) error
}

// Send delivers a user message to ref.
func Send(ref Ref, message interface{}) error {
	t, ok := ref.(userMessenger)
	if !ok {
		return ErrNotLocal
	}
	return t.Tell(message)
}
