package actor

import (
	"fmt"

	"github.com/hedisam/actorcell/deploy"
)

// Receiver handles the user messages of a local actor, one at a time.
type Receiver interface {
	Receive(ctx *Context, message interface{})
}

type ReceiveFunc func(ctx *Context, message interface{})

func (f ReceiveFunc) Receive(ctx *Context, message interface{}) {
	f(ctx, message)
}

// PreStarter is an optional Receiver hook. For synchronously created children it runs
// inside ActorOf, so its error fails the creation.
type PreStarter interface {
	PreStart(ctx *Context) error
}

// PostStopper is an optional Receiver hook run once after the children are gone.
type PostStopper interface {
	PostStop(ctx *Context)
}

// Props is the blueprint of an actor. Props are immutable.
type Props struct {
	producer func() Receiver
	deploy   *deploy.Deploy
}

// PropsFromProducer builds props creating a new receiver per incarnation.
func PropsFromProducer(producer func() Receiver) *Props {
	return &Props{producer: producer}
}

// PropsFromFunc builds props for a stateless receive function.
func PropsFromFunc(fn ReceiveFunc) *Props {
	return PropsFromProducer(func() Receiver { return fn })
}

// WithDeploy returns a copy carrying d.
func (p *Props) WithDeploy(d *deploy.Deploy) *Props {
	next := *p
	next.deploy = d
	return &next
}

// Deploy returns the props' deployment, nil when none was given.
func (p *Props) Deploy() *deploy.Deploy {
	return p.deploy
}

func (p *Props) newReceiver() (receiver Receiver, err error) {
	if p.producer == nil {
		return nil, fmt.Errorf("props: no producer")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("props: producer panicked: %v", r)
		}
	}()
	receiver = p.producer()
	if receiver == nil {
		return nil, fmt.Errorf("props: producer returned nil")
	}
	return receiver, nil
}
