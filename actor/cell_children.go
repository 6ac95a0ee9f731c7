package actor

import (
	"errors"
	"time"

	"github.com/hedisam/actorcell/children"
	"github.com/hedisam/actorcell/internal/spin"
	"github.com/hedisam/actorcell/path"
)

// DefaultRestartWindow is the window RecordChildRestart callers use when they have no
// supervision settings of their own.
const DefaultRestartWindow = time.Minute

// ActorOf creates and starts a child called name. The child is constructed
// synchronously, so a failing PreStart fails the call.
func (c *Cell) ActorOf(props *Props, name string) (Ref, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return c.makeChild(props, name, false, false)
}

// Spawn creates and starts a child under a generated name.
func (c *Cell) Spawn(props *Props) (Ref, error) {
	return c.makeChild(props, randomName(), false, false)
}

// AttachChild creates a named child whose initialisation runs on its own goroutine.
func (c *Cell) AttachChild(props *Props, name string, systemService bool) (Ref, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return c.makeChild(props, name, true, systemService)
}

// AttachAnonymousChild is AttachChild under a generated name.
func (c *Cell) AttachAnonymousChild(props *Props, systemService bool) (Ref, error) {
	return c.makeChild(props, randomName(), true, systemService)
}

func (c *Cell) makeChild(props *Props, name string, async, systemService bool) (Ref, error) {
	if props == nil {
		return nil, ErrNilProps
	}
	uid := newUID()
	if err := c.reserve(name, uid, true); err != nil {
		c.logger.Debug().Err(err).Str("child", name).Msg("child creation rejected")
		return nil, err
	}

	childPath := c.self.Path().Child(name, uid)
	child, err := c.provider.ActorOf(props, c.self, childPath, systemService, nil, async)
	if err != nil {
		c.UnreserveChild(name)
		c.logger.Warn().Err(err).Str("child", name).Msg("could not construct child, name released")
		return nil, err
	}

	stats := c.InitChild(child)
	if stats == nil || !children.SameRef(stats.Child(), child) {
		// stopped or terminated while under construction
		child.Stop()
		c.logger.Debug().Str("child", childPath.StringWithUID()).Msg("child creation aborted")
		return nil, ErrCreationAborted
	}
	child.Start()
	c.logger.Debug().Str("child", childPath.StringWithUID()).Bool("async", async).Msg("child started")
	return child, nil
}

// ReserveChild claims name for a child about to be constructed and returns the uid the
// child must be created with. A taken name yields an *InvalidActorNameError wrapping
// children.ErrNameNotUnique.
func (c *Cell) ReserveChild(name string) (int64, error) {
	uid := newUID()
	if err := c.reserve(name, uid, false); err != nil {
		return path.UndefinedUID, err
	}
	return uid, nil
}

func (c *Cell) reserve(name string, uid int64, requireNormal bool) error {
	return spin.ConditionallySwap(&c.children, func(current *children.Container) (bool, *children.Container, error) {
		if current.IsTerminated() || (requireNormal && !current.IsNormal()) {
			return false, current, ErrTerminating
		}
		next, err := current.Reserve(name, uid)
		if err != nil {
			return false, current, &InvalidActorNameError{Name: name, Reason: "name is not unique", Err: err}
		}
		return true, next, nil
	})
}

// UnreserveChild releases name if it is still only reserved.
func (c *Cell) UnreserveChild(name string) {
	spin.Swap(&c.children, func(current *children.Container) *children.Container {
		return current.Unreserve(name)
	})
}

// InitChild turns the reservation for child's name into a live entry. When the name
// already holds a live child, that entry is kept and returned. Nil means the reservation
// is gone or belongs to another incarnation.
func (c *Cell) InitChild(child Ref) *children.ChildRestartStats {
	name := child.Path().Name()
	return spin.ConditionallySwap(&c.children, func(current *children.Container) (bool, *children.Container, *children.ChildRestartStats) {
		entry, ok := current.GetByName(name)
		if !ok {
			return false, current, nil
		}
		switch entry := entry.(type) {
		case children.ChildNameReserved:
			if entry.UID != child.Path().UID() {
				return false, current, nil
			}
			stats := children.NewChildRestartStats(child)
			return true, current.Add(name, stats), stats
		case *children.ChildRestartStats:
			return false, current, entry
		default:
			return false, current, nil
		}
	})
}

// Stop asks child to stop. A tracked child that is running becomes awaited; a name
// reserved for this incarnation of child is released. The child itself is always told to
// stop.
func (c *Cell) Stop(child Ref) {
	container := c.ChildrenContainer()
	if container.Contains(child) {
		if isStarted(child) {
			c.shallDie(child)
		}
	} else if entry, ok := container.GetByName(child.Path().Name()); ok {
		if reserved, ok := entry.(children.ChildNameReserved); ok && reserved.UID == child.Path().UID() {
			c.shallDie(child)
		}
	}
	child.Stop()
}

func isStarted(child Ref) bool {
	if r, ok := child.(Repointable); ok {
		return r.IsStarted()
	}
	return true
}

func (c *Cell) shallDie(child Ref) {
	spin.Swap(&c.children, func(current *children.Container) *children.Container {
		return current.ShallDie(child)
	})
}

type stateChange struct {
	reason  children.SuspendReason
	changed bool
}

// RemoveChildAndGetStateChange forgets child. It returns the termination reason, and
// true, only when this removal took the cell out of the terminating state.
func (c *Cell) RemoveChildAndGetStateChange(child Ref) (children.SuspendReason, bool) {
	change := spin.ConditionallySwap(&c.children, func(current *children.Container) (bool, *children.Container, stateChange) {
		next := current.Remove(child)
		if next == current {
			return false, current, stateChange{}
		}
		if current.IsTerminating() && !next.IsTerminating() {
			reason, _ := current.Reason()
			return true, next, stateChange{reason: reason, changed: true}
		}
		return true, next, stateChange{}
	})
	if change.changed {
		c.logger.Debug().Stringer("reason", change.reason).Msg("all awaited children terminated")
	}
	return change.reason, change.changed
}

// SetChildrenTerminationReason replaces the reason of a terminating cell. It reports
// false when the cell is not terminating.
func (c *Cell) SetChildrenTerminationReason(reason children.SuspendReason) bool {
	return spin.ConditionallySwap(&c.children, func(current *children.Container) (bool, *children.Container, bool) {
		if !current.IsTerminating() {
			return false, current, false
		}
		return true, current.WithReason(reason), true
	})
}

// SetTerminated installs the terminated container. No child can be added afterwards.
func (c *Cell) SetTerminated() {
	c.children.Store(children.Terminated())
}

// SuspendChildren suspends every live child not listed in except.
func (c *Cell) SuspendChildren(except ...Ref) {
	for _, child := range c.Children() {
		if !containsRef(except, child) {
			child.Suspend()
		}
	}
}

// ResumeChildren resumes every live child. Only perpetrator gets cause.
func (c *Cell) ResumeChildren(cause error, perpetrator Ref) {
	for _, child := range c.Children() {
		if perpetrator != nil && children.SameRef(child, perpetrator) {
			child.Resume(cause)
		} else {
			child.Resume(nil)
		}
	}
}

func containsRef(refs []Ref, ref Ref) bool {
	for _, r := range refs {
		if children.SameRef(r, ref) {
			return true
		}
	}
	return false
}

// RecordChildRestart stores one more restart of child. It reports false when child is
// not tracked.
func (c *Cell) RecordChildRestart(child Ref, now time.Time, window time.Duration) (*children.ChildRestartStats, bool) {
	r := spin.ConditionallySwap(&c.children, func(current *children.Container) (bool, *children.Container, recorded) {
		stats, ok := current.GetByRef(child)
		if !ok {
			return false, current, recorded{}
		}
		next := stats.WithRestart(now, window)
		return true, current.Add(child.Path().Name(), next), recorded{stats: next, ok: true}
	})
	return r.stats, r.ok
}

type recorded struct {
	stats *children.ChildRestartStats
	ok    bool
}

// Children returns the live children ordered by name.
func (c *Cell) Children() []Ref {
	return c.ChildrenContainer().Children()
}

// ChildrenStats returns the stats of the live children ordered by name.
func (c *Cell) ChildrenStats() []*children.ChildRestartStats {
	return c.ChildrenContainer().Stats()
}

// TryGetChild returns the live child called name.
func (c *Cell) TryGetChild(name string) (Ref, bool) {
	stats, ok := c.TryGetChildStatsByName(name)
	if !ok {
		return nil, false
	}
	return stats.Child(), true
}

// TryGetChildStatsByName returns the stats of the live child called name.
func (c *Cell) TryGetChildStatsByName(name string) (*children.ChildRestartStats, bool) {
	entry, ok := c.ChildrenContainer().GetByName(name)
	if !ok {
		return nil, false
	}
	stats, ok := entry.(*children.ChildRestartStats)
	return stats, ok
}

func (c *Cell) TryGetChildStatsByRef(child Ref) (*children.ChildRestartStats, bool) {
	return c.ChildrenContainer().GetByRef(child)
}

// TryGetSingleChild resolves "name" or "name#uid". With a uid only that incarnation
// matches.
func (c *Cell) TryGetSingleChild(name string) (Ref, bool) {
	childName, uid := path.SplitNameAndUID(name)
	stats, ok := c.TryGetChildStatsByName(childName)
	if !ok {
		return nil, false
	}
	if uid != path.UndefinedUID && uid != stats.UID() {
		return nil, false
	}
	return stats.Child(), true
}

// IsNameTaken reports whether err is a naming conflict.
func IsNameTaken(err error) bool {
	return errors.Is(err, children.ErrNameNotUnique)
}
