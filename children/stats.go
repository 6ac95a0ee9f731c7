package children

import (
	"time"

	"github.com/hedisam/actorcell/path"
)

// Ref is the non-owning handle a container keeps for a child. The child manages its own
// lifetime; the container only references it.
type Ref interface {
	Path() *path.Path
	Start()
	Stop()
	Suspend()
	Resume(cause error)
}

// SameRef reports whether a and b denote the same incarnation.
func SameRef(a, b Ref) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b || a.Path().Equal(b.Path())
}

func refKey(ref Ref) string {
	return ref.Path().StringWithUID()
}

// Stats is what a container stores per name: either ChildNameReserved or
// *ChildRestartStats.
type Stats interface {
	childStats()
}

// ChildNameReserved marks a claimed name whose actor is not constructed yet. UID is the
// incarnation the actor will get.
type ChildNameReserved struct {
	UID int64
}

func (ChildNameReserved) childStats() {}

// ChildRestartStats holds a live child and its restart bookkeeping.
type ChildRestartStats struct {
	child        Ref
	uid          int64
	restartCount int
	windowStart  time.Time
	lastRestart  time.Time
}

func (*ChildRestartStats) childStats() {}

// NewChildRestartStats returns fresh stats for child; the incarnation uid is taken from
// the child's path.
func NewChildRestartStats(child Ref) *ChildRestartStats {
	return &ChildRestartStats{child: child, uid: child.Path().UID()}
}

func (s *ChildRestartStats) Child() Ref {
	return s.child
}

func (s *ChildRestartStats) UID() int64 {
	return s.uid
}

// RestartCount returns the number of restarts recorded in the current window.
func (s *ChildRestartStats) RestartCount() int {
	return s.restartCount
}

func (s *ChildRestartStats) WindowStart() time.Time {
	return s.windowStart
}

func (s *ChildRestartStats) LastRestart() time.Time {
	return s.lastRestart
}

// WithRestart returns a copy with one more restart recorded at now. The count starts over
// when now falls outside window measured from the first restart of the current window;
// a zero window never expires.
func (s *ChildRestartStats) WithRestart(now time.Time, window time.Duration) *ChildRestartStats {
	next := *s
	if next.restartCount == 0 || (window > 0 && now.Sub(next.windowStart) > window) {
		next.restartCount = 0
		next.windowStart = now
	}
	next.restartCount++
	next.lastRestart = now
	return &next
}
