// Package sysmsg defines the system messages exchanged between actors and their parents.
// System messages are queued apart from user messages and always processed first.
package sysmsg

import (
	"github.com/hedisam/actorcell/children"
)

type SystemMessage interface {
	systemMessage()
}

// Suspend stops user message processing of the receiver and its children.
type Suspend struct{}

func (Suspend) systemMessage() {}

// Resume restarts user message processing. Cause is set when the receiver is the actor
// whose failure led to the suspension.
type Resume struct {
	Cause error
}

func (Resume) systemMessage() {}

// Terminate asks the receiver to stop its children and then itself.
type Terminate struct{}

func (Terminate) systemMessage() {}

// ChildTerminated tells a parent that one of its children finished terminating.
type ChildTerminated struct {
	Child children.Ref
}

func (ChildTerminated) systemMessage() {}

// Failed tells a parent that Child panicked while handling a message and is suspended.
type Failed struct {
	Child children.Ref
	Cause error
}

func (Failed) systemMessage() {}
