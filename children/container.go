// Package children holds the immutable registry of an actor's children.
//
// A Container is a snapshot in one of four states: Empty, Normal, Terminating and
// Terminated. Every operation returns a container, either the receiver when nothing
// changes or a new value; containers are never modified in place, so a snapshot can be
// read from any goroutine without synchronization. Transitions only move forward:
// Empty/Normal to Terminating to Terminated. Empty and Terminated are shared singletons.
package children

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hedisam/actorcell/internal/immutable"
)

// ErrNameNotUnique is returned by Reserve when the name is already taken.
var ErrNameNotUnique = errors.New("actor name is not unique")

// State enumerates the container states.
type State int32

const (
	StateEmpty State = iota
	StateNormal
	StateTerminating
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateNormal:
		return "normal"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Container is an immutable snapshot of an actor's children.
type Container struct {
	state State
	stats immutable.Map[string, Stats]
	// toDie is keyed by the child's path with uid.
	toDie  immutable.Map[string, Ref]
	reason SuspendReason
}

var (
	emptyContainer      = &Container{state: StateEmpty}
	terminatedContainer = &Container{state: StateTerminated}
)

// Empty returns the shared container of an actor without children.
func Empty() *Container {
	return emptyContainer
}

// Terminated returns the shared absorbing container of a terminated actor.
func Terminated() *Container {
	return terminatedContainer
}

func normal(stats immutable.Map[string, Stats]) *Container {
	if stats.IsEmpty() {
		return emptyContainer
	}
	return &Container{state: StateNormal, stats: stats}
}

func terminating(stats immutable.Map[string, Stats], toDie immutable.Map[string, Ref], reason SuspendReason) *Container {
	return &Container{state: StateTerminating, stats: stats, toDie: toDie, reason: reason}
}

// State returns the container state.
func (c *Container) State() State {
	return c.state
}

// IsNormal reports whether new children may be created: Empty or Normal.
func (c *Container) IsNormal() bool {
	return c.state == StateEmpty || c.state == StateNormal
}

func (c *Container) IsTerminating() bool {
	return c.state == StateTerminating
}

func (c *Container) IsTerminated() bool {
	return c.state == StateTerminated
}

// Reason returns the termination reason of a terminating container.
func (c *Container) Reason() (SuspendReason, bool) {
	if c.state != StateTerminating {
		return SuspendReason{}, false
	}
	return c.reason, true
}

// Add registers stats under name, overwriting any entry.
func (c *Container) Add(name string, stats *ChildRestartStats) *Container {
	switch c.state {
	case StateEmpty, StateNormal:
		return normal(c.stats.Add(name, stats))
	case StateTerminating:
		return terminating(c.stats.Add(name, stats), c.toDie, c.reason)
	default:
		return c
	}
}

// Reserve claims name for incarnation uid. A taken name yields ErrNameNotUnique and the
// receiver.
func (c *Container) Reserve(name string, uid int64) (*Container, error) {
	switch c.state {
	case StateEmpty, StateNormal:
		if c.stats.Contains(name) {
			return c, fmt.Errorf("actor name [%s]: %w", name, ErrNameNotUnique)
		}
		return normal(c.stats.Add(name, ChildNameReserved{UID: uid})), nil
	case StateTerminating:
		if c.stats.Contains(name) {
			return c, fmt.Errorf("actor name [%s]: %w", name, ErrNameNotUnique)
		}
		return terminating(c.stats.Add(name, ChildNameReserved{UID: uid}), c.toDie, c.reason), nil
	default:
		return c, nil
	}
}

// Unreserve drops name if it is only reserved.
func (c *Container) Unreserve(name string) *Container {
	if c.state != StateNormal && c.state != StateTerminating {
		return c
	}
	s, ok := c.stats.Get(name)
	if !ok {
		return c
	}
	if _, reserved := s.(ChildNameReserved); !reserved {
		return c
	}
	if c.state == StateNormal {
		return normal(c.stats.Remove(name))
	}
	return terminating(c.stats.Remove(name), c.toDie, c.reason)
}

// Remove forgets child. In a terminating container the child also leaves the awaited
// set; once that set is empty the container moves to Terminated when the reason is
// Termination and back to Normal otherwise.
func (c *Container) Remove(child Ref) *Container {
	switch c.state {
	case StateNormal:
		stats := c.withoutChild(child)
		if stats.Len() == c.stats.Len() {
			return c
		}
		return normal(stats)
	case StateTerminating:
		stats := c.withoutChild(child)
		toDie := c.toDie.Remove(refKey(child))
		if toDie.IsEmpty() {
			if c.reason.Kind == Termination {
				return terminatedContainer
			}
			return normal(stats)
		}
		if stats.Len() == c.stats.Len() && toDie.Len() == c.toDie.Len() {
			return c
		}
		return terminating(stats, toDie, c.reason)
	default:
		return c
	}
}

func (c *Container) withoutChild(child Ref) immutable.Map[string, Stats] {
	name := child.Path().Name()
	if s, ok := c.stats.Get(name); ok {
		if rs, ok := s.(*ChildRestartStats); ok && SameRef(rs.child, child) {
			return c.stats.Remove(name)
		}
	}
	return c.stats
}

// ShallDie marks child as awaited, moving a Normal container to Terminating with the
// UserRequest reason. A name that is only reserved is released instead since no actor
// exists yet to wait for. Unknown children leave the container unchanged.
func (c *Container) ShallDie(child Ref) *Container {
	if c.state != StateNormal && c.state != StateTerminating {
		return c
	}
	name := child.Path().Name()
	s, ok := c.stats.Get(name)
	if !ok {
		return c
	}
	switch s := s.(type) {
	case ChildNameReserved:
		if s.UID != child.Path().UID() {
			return c
		}
		return c.Unreserve(name)
	case *ChildRestartStats:
		if !SameRef(s.child, child) {
			return c
		}
	}
	if c.state == StateNormal {
		toDie := immutable.Map[string, Ref]{}.Add(refKey(child), child)
		return terminating(c.stats, toDie, UserRequestReason())
	}
	return terminating(c.stats, c.toDie.Add(refKey(child), child), c.reason)
}

// WithReason replaces the reason of a terminating container.
func (c *Container) WithReason(reason SuspendReason) *Container {
	if c.state != StateTerminating {
		return c
	}
	return terminating(c.stats, c.toDie, reason)
}

// GetByName returns the entry for name, reservation or live child.
func (c *Container) GetByName(name string) (Stats, bool) {
	if c.state != StateNormal && c.state != StateTerminating {
		return nil, false
	}
	return c.stats.Get(name)
}

// GetByRef returns the stats of child if this incarnation is registered.
func (c *Container) GetByRef(child Ref) (*ChildRestartStats, bool) {
	s, ok := c.GetByName(child.Path().Name())
	if !ok {
		return nil, false
	}
	rs, ok := s.(*ChildRestartStats)
	if !ok || !SameRef(rs.child, child) {
		return nil, false
	}
	return rs, true
}

// Contains reports whether child is registered.
func (c *Container) Contains(child Ref) bool {
	_, ok := c.GetByRef(child)
	return ok
}

// Stats returns the live children's stats ordered by name, skipping reservations.
func (c *Container) Stats() []*ChildRestartStats {
	var out []*ChildRestartStats
	c.stats.Range(func(_ string, s Stats) bool {
		if rs, ok := s.(*ChildRestartStats); ok {
			out = append(out, rs)
		}
		return true
	})
	return out
}

// Children returns the live children ordered by name.
func (c *Container) Children() []Ref {
	stats := c.Stats()
	refs := make([]Ref, 0, len(stats))
	for _, s := range stats {
		refs = append(refs, s.child)
	}
	return refs
}

// ToDie returns the children a terminating container still waits for.
func (c *Container) ToDie() []Ref {
	return c.toDie.Values()
}

func (c *Container) String() string {
	switch c.state {
	case StateEmpty:
		return "no children"
	case StateTerminated:
		return "terminated"
	case StateNormal:
		return "normal children: " + strings.Join(c.stats.Keys(), ", ")
	default:
		return fmt.Sprintf("terminating children: %s; to die: %s; reason: %s",
			strings.Join(c.stats.Keys(), ", "), strings.Join(c.toDie.Keys(), ", "), c.reason)
	}
}
