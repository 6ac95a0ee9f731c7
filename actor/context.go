package actor

import (
	"github.com/rs/zerolog"
)

// Context is handed to a receiver. It is only valid on the actor's own goroutine.
type Context struct {
	actor   *localActor
	message interface{}
}

func (c *Context) Self() Ref {
	return c.actor
}

// Parent returns the parent ref, nil for the guardian.
func (c *Context) Parent() Ref {
	return c.actor.parent
}

// Message returns the message being processed.
func (c *Context) Message() interface{} {
	return c.message
}

// ActorOf creates a named child of this actor.
func (c *Context) ActorOf(props *Props, name string) (Ref, error) {
	return c.actor.cell.ActorOf(props, name)
}

// Spawn creates a child under a generated name.
func (c *Context) Spawn(props *Props) (Ref, error) {
	return c.actor.cell.Spawn(props)
}

// Stop stops child, or this actor when child is Self.
func (c *Context) Stop(child Ref) {
	if child == Ref(c.actor) {
		c.actor.Stop()
		return
	}
	c.actor.cell.Stop(child)
}

func (c *Context) Children() []Ref {
	return c.actor.cell.Children()
}

// Child looks up a child by "name" or "name#uid".
func (c *Context) Child(name string) (Ref, bool) {
	return c.actor.cell.TryGetSingleChild(name)
}

func (c *Context) Logger() *zerolog.Logger {
	return &c.actor.logger
}
