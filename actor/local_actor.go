package actor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/hedisam/actorcell/children"
	"github.com/hedisam/actorcell/deploy"
	"github.com/hedisam/actorcell/internal/logging"
	"github.com/hedisam/actorcell/internal/mailbox"
	"github.com/hedisam/actorcell/path"
	"github.com/hedisam/actorcell/sysmsg"
)

const (
	actorCreated int32 = iota
	actorStarted
	actorStopped
)

// localActor runs one receiver on its own goroutine. System messages are handled before
// user messages; while suspended or terminating user messages wait in the mailbox.
type localActor struct {
	id            xid.ID
	path          *path.Path
	parent        Ref
	deploy        *deploy.Deploy
	systemService bool
	async         bool

	props    *Props
	receiver Receiver
	mailbox  *mailbox.Queue
	cell     *Cell
	ctx      *Context
	logger   zerolog.Logger

	status     int32
	started    int32
	done       chan struct{}
	finishOnce sync.Once

	// owned by the actor goroutine
	suspended   bool
	terminating bool
}

var _ Repointable = (*localActor)(nil)

func newLocalActor(p *LocalProvider, props *Props, parent Ref, actorPath *path.Path, d *deploy.Deploy, systemService, async bool) *localActor {
	a := &localActor{
		id:            xid.New(),
		path:          actorPath,
		parent:        parent,
		deploy:        d,
		systemService: systemService,
		async:         async,
		props:         props,
		mailbox:       mailbox.New(p.mailboxCapacity(d)),
		done:          make(chan struct{}),
		status:        actorCreated,
	}
	a.logger = logging.Logger("actor").With().
		Str("path", actorPath.String()).
		Str("id", a.id.String()).
		Logger()
	a.cell = NewCell(a, p, WithLogger(a.logger))
	a.ctx = &Context{actor: a}
	return a
}

// initialize builds the receiver and runs PreStart.
func (a *localActor) initialize() error {
	receiver, err := a.props.newReceiver()
	if err != nil {
		return err
	}
	a.receiver = receiver
	if ps, ok := receiver.(PreStarter); ok {
		if err := ps.PreStart(a.ctx); err != nil {
			return fmt.Errorf("pre start: %w", err)
		}
	}
	return nil
}

func (a *localActor) Path() *path.Path {
	return a.path
}

// Start launches the actor goroutine. Only the first call has an effect.
func (a *localActor) Start() {
	if !atomic.CompareAndSwapInt32(&a.status, actorCreated, actorStarted) {
		return
	}
	atomic.StoreInt32(&a.started, 1)
	go a.run()
}

// IsStarted reports whether Start launched the actor.
func (a *localActor) IsStarted() bool {
	return atomic.LoadInt32(&a.started) == 1
}

// Stop terminates the actor after its children. An actor that never started finishes
// immediately.
func (a *localActor) Stop() {
	if atomic.CompareAndSwapInt32(&a.status, actorCreated, actorStopped) {
		a.finish()
		return
	}
	_ = a.mailbox.PostSystem(sysmsg.Terminate{})
}

func (a *localActor) Suspend() {
	_ = a.mailbox.PostSystem(sysmsg.Suspend{})
}

func (a *localActor) Resume(cause error) {
	_ = a.mailbox.PostSystem(sysmsg.Resume{Cause: cause})
}

// Tell enqueues a user message.
func (a *localActor) Tell(message interface{}) error {
	return a.mailbox.PostUser(message)
}

func (a *localActor) sendSystemMessage(message sysmsg.SystemMessage) error {
	return a.mailbox.PostSystem(message)
}

// Done is closed once the actor and all its children are gone.
func (a *localActor) Done() <-chan struct{} {
	return a.done
}

// Cell exposes the actor's children registry.
func (a *localActor) Cell() *Cell {
	return a.cell
}

func (a *localActor) String() string {
	return a.path.StringWithUID()
}

func (a *localActor) run() {
	if a.async {
		if err := a.initialize(); err != nil {
			a.logger.Error().Err(err).Msg("actor initialisation failed")
			a.finish()
			return
		}
	}
	a.logger.Debug().Msg("actor started")
	for {
		select {
		case <-a.mailbox.Signal():
			if a.drain() {
				return
			}
		case <-a.mailbox.Done():
			return
		}
	}
}

// drain processes queued messages and reports whether the actor finished.
func (a *localActor) drain() bool {
	for {
		if a.mailbox.HasSystemMessages() {
			msg, ok := a.mailbox.PopSystem()
			if !ok {
				return false
			}
			a.handleSystemMessage(msg)
			if a.isFinished() {
				return true
			}
			continue
		}
		if a.suspended || a.terminating || !a.mailbox.HasUserMessages() {
			return false
		}
		msg, ok := a.mailbox.PopUser()
		if !ok {
			return false
		}
		a.invoke(msg)
	}
}

func (a *localActor) isFinished() bool {
	select {
	case <-a.mailbox.Done():
		return true
	default:
		return false
	}
}

func (a *localActor) handleSystemMessage(message sysmsg.SystemMessage) {
	switch msg := message.(type) {
	case sysmsg.Suspend:
		a.suspended = true
		a.cell.SuspendChildren()
	case sysmsg.Resume:
		a.suspended = false
		a.cell.ResumeChildren(nil, nil)
		if msg.Cause != nil {
			a.logger.Info().Err(msg.Cause).Msg("resumed after failure")
		}
	case sysmsg.Terminate:
		a.terminate()
	case sysmsg.ChildTerminated:
		a.handleChildTerminated(msg.Child)
	case sysmsg.Failed:
		a.handleFailed(msg.Child, msg.Cause)
	default:
		a.logger.Warn().Str("type", fmt.Sprintf("%T", message)).Msg("unknown system message")
	}
}

func (a *localActor) terminate() {
	if a.terminating {
		return
	}
	a.terminating = true
	for _, child := range a.cell.Children() {
		a.cell.Stop(child)
	}
	if a.cell.SetChildrenTerminationReason(children.TerminationReason()) {
		a.logger.Debug().Int("children", len(a.cell.ChildrenContainer().ToDie())).Msg("waiting for children")
		return
	}
	a.finish()
}

func (a *localActor) handleChildTerminated(child Ref) {
	reason, changed := a.cell.RemoveChildAndGetStateChange(child)
	if !changed {
		return
	}
	if reason.Kind == children.Termination {
		a.finish()
		return
	}
	a.logger.Debug().Stringer("reason", reason).Msg("awaited children terminated")
}

func (a *localActor) handleFailed(child Ref, cause error) {
	stats, ok := a.cell.RecordChildRestart(child, time.Now(), DefaultRestartWindow)
	if !ok {
		a.logger.Debug().Str("child", child.Path().StringWithUID()).Msg("failure of unknown child dropped")
		return
	}
	a.logger.Warn().
		Err(cause).
		Str("child", child.Path().StringWithUID()).
		Int("restarts", stats.RestartCount()).
		Msg("child failed, resuming")
	child.Resume(cause)
}

func (a *localActor) invoke(message interface{}) {
	defer func() {
		if r := recover(); r != nil {
			a.fail(fmt.Errorf("%s: receiver panicked: %v", a.path, r))
		}
	}()
	a.ctx.message = message
	a.receiver.Receive(a.ctx, message)
	a.ctx.message = nil
}

func (a *localActor) fail(cause error) {
	a.ctx.message = nil
	a.logger.Error().Err(cause).Msg("actor failed")
	a.suspended = true
	a.cell.SuspendChildren()
	if parent, ok := a.parent.(systemMessenger); ok {
		if err := parent.sendSystemMessage(sysmsg.Failed{Child: a, Cause: cause}); err == nil {
			return
		}
	}
	// nobody supervises us
	a.suspended = false
	a.cell.ResumeChildren(nil, nil)
}

func (a *localActor) finish() {
	a.finishOnce.Do(func() {
		atomic.StoreInt32(&a.status, actorStopped)
		a.cell.SetTerminated()
		if a.IsStarted() && a.receiver != nil {
			if ps, ok := a.receiver.(PostStopper); ok {
				ps.PostStop(a.ctx)
			}
		}
		a.mailbox.Dispose()
		if parent, ok := a.parent.(systemMessenger); ok {
			_ = parent.sendSystemMessage(sysmsg.ChildTerminated{Child: a})
		}
		close(a.done)
		a.logger.Debug().Msg("actor stopped")
	})
}
