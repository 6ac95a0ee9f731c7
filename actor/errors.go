package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidActorName matches every *InvalidActorNameError.
	ErrInvalidActorName = errors.New("invalid actor name")
	// ErrTerminating is returned when a child is created by a terminating or
	// terminated actor.
	ErrTerminating = errors.New("cannot create child while terminating or terminated")
	// ErrCreationAborted is returned when the name reservation disappeared while the
	// child was being constructed, because it was stopped or its parent terminated.
	ErrCreationAborted = errors.New("child creation aborted")
	ErrNilProps        = errors.New("props must not be nil")
	// ErrUnsupportedScope is returned for deployments outside the local scope.
	ErrUnsupportedScope = errors.New("unsupported deployment scope")
	// ErrNotLocal is returned by Send for refs that cannot receive user messages.
	ErrNotLocal = errors.New("ref does not accept user messages")
)

// InvalidActorNameError rejects a child name.
type InvalidActorNameError struct {
	Name   string
	Reason string
	// Err is the underlying cause, e.g. children.ErrNameNotUnique.
	Err error
}

func (e *InvalidActorNameError) Error() string {
	return fmt.Sprintf("invalid actor name [%s]: %s", e.Name, e.Reason)
}

func (e *InvalidActorNameError) Unwrap() error {
	return e.Err
}

func (e *InvalidActorNameError) Is(target error) bool {
	return target == ErrInvalidActorName
}
