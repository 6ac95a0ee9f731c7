package actor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/hedisam/actorcell/children"
	"github.com/hedisam/actorcell/deploy"
	"github.com/hedisam/actorcell/path"
)

var cellPath = path.Root("test").Child("user", path.UndefinedUID).Child("parent", 1)

type testRef struct {
	p        *path.Path
	starts   atomic.Int32
	stops    atomic.Int32
	suspends atomic.Int32

	mu      sync.Mutex
	resumes []error
}

func newTestRef(p *path.Path) *testRef {
	return &testRef{p: p}
}

func (r *testRef) Path() *path.Path { return r.p }
func (r *testRef) Start()           { r.starts.Add(1) }
func (r *testRef) Stop()            { r.stops.Add(1) }
func (r *testRef) Suspend()         { r.suspends.Add(1) }

func (r *testRef) Resume(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes = append(r.resumes, cause)
}

func (r *testRef) resumeCauses() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.resumes...)
}

// lazyRef exists before its actor runs.
type lazyRef struct {
	*testRef
	started atomic.Bool
}

func (r *lazyRef) IsStarted() bool { return r.started.Load() }

type testProvider struct {
	mu                sync.Mutex
	err               error
	onConstruct       func(childPath *path.Path)
	created           []*testRef
	lastAsync         bool
	lastSystemService bool
}

func (p *testProvider) ActorOf(_ *Props, _ Ref, childPath *path.Path, systemService bool, _ *deploy.Deploy, async bool) (Ref, error) {
	if p.onConstruct != nil {
		p.onConstruct(childPath)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastAsync = async
	p.lastSystemService = systemService
	if p.err != nil {
		return nil, p.err
	}
	ref := newTestRef(childPath)
	p.created = append(p.created, ref)
	return ref, nil
}

func (p *testProvider) constructed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created)
}

var noopProps = PropsFromFunc(func(*Context, interface{}) {})

func newTestCell() (*Cell, *testProvider) {
	provider := &testProvider{}
	return NewCell(newTestRef(cellPath), provider, WithLogger(zerolog.Nop())), provider
}

func mustActorOf(t *testing.T, c *Cell, name string) *testRef {
	t.Helper()
	ref, err := c.ActorOf(noopProps, name)
	require.NoError(t, err)
	return ref.(*testRef)
}

func TestActorOfCreatesAndStartsChild(t *testing.T) {
	c, _ := newTestCell()

	worker := mustActorOf(t, c, "worker")

	assert.True(t, c.IsNormal())
	assert.Equal(t, int32(1), worker.starts.Load())
	assert.Equal(t, "worker", worker.Path().Name())
	assert.NotEqual(t, path.UndefinedUID, worker.Path().UID())
	assert.True(t, worker.Path().Parent().Equal(cellPath))

	got, ok := c.TryGetChild("worker")
	require.True(t, ok)
	assert.Same(t, worker, got)
	assert.Len(t, c.Children(), 1)
}

func TestActorOfRejectsDuplicateName(t *testing.T) {
	c, provider := newTestCell()
	mustActorOf(t, c, "worker")

	_, err := c.ActorOf(noopProps, "worker")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidActorName)
	assert.True(t, IsNameTaken(err))
	var nameErr *InvalidActorNameError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "worker", nameErr.Name)
	assert.Equal(t, 1, provider.constructed())
}

func TestActorOfRejectsInvalidNames(t *testing.T) {
	c, provider := newTestCell()
	mustActorOf(t, c, "existing")
	before := c.ChildrenContainer()

	for _, name := range []string{"", "$anon", "a/b", "a b", "héllo", "tab\t"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			_, err := c.ActorOf(noopProps, name)
			assert.ErrorIs(t, err, ErrInvalidActorName)
			assert.False(t, IsNameTaken(err))
		})
	}

	assert.Same(t, before, c.ChildrenContainer())
	assert.Equal(t, 1, provider.constructed())
}

func TestActorOfNilProps(t *testing.T) {
	c, _ := newTestCell()

	_, err := c.ActorOf(nil, "worker")

	assert.ErrorIs(t, err, ErrNilProps)
	assert.Same(t, children.Empty(), c.ChildrenContainer())
}

func TestActorOfRejectedWhileTerminating(t *testing.T) {
	c, provider := newTestCell()
	worker := mustActorOf(t, c, "worker")
	c.Stop(worker)
	require.True(t, c.IsTerminating())

	_, err := c.ActorOf(noopProps, "other")
	assert.ErrorIs(t, err, ErrTerminating)
	_, err = c.Spawn(noopProps)
	assert.ErrorIs(t, err, ErrTerminating)

	c.SetTerminated()
	_, err = c.ActorOf(noopProps, "other")
	assert.ErrorIs(t, err, ErrTerminating)
	assert.Equal(t, 1, provider.constructed())
}

func TestActorOfReleasesNameOnProviderError(t *testing.T) {
	c, provider := newTestCell()
	boom := errors.New("boom")
	provider.err = boom

	_, err := c.ActorOf(noopProps, "worker")

	assert.ErrorIs(t, err, boom)
	_, ok := c.ChildrenContainer().GetByName("worker")
	assert.False(t, ok)

	provider.err = nil
	mustActorOf(t, c, "worker")
}

func TestConcurrentActorOfSameName(t *testing.T) {
	c, provider := newTestCell()

	var won, conflicts atomic.Int32
	g := errgroup.Group{}
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := c.ActorOf(noopProps, "contended")
			switch {
			case err == nil:
				won.Add(1)
			case IsNameTaken(err):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(15), conflicts.Load())
	assert.Equal(t, 1, provider.constructed())
	assert.Len(t, c.Children(), 1)
}

func TestSpawnGeneratesUniqueNames(t *testing.T) {
	c, _ := newTestCell()
	generated := regexp.MustCompile(`^\$[A-Za-z0-9+~]+$`)

	const workers, perWorker = 8, 1250
	var mu sync.Mutex
	names := make(map[string]struct{}, workers*perWorker)
	g := errgroup.Group{}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				ref, err := c.Spawn(noopProps)
				if err != nil {
					return err
				}
				mu.Lock()
				names[ref.Path().Name()] = struct{}{}
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Len(t, names, workers*perWorker)
	for name := range names {
		require.Regexp(t, generated, name)
	}
	assert.Len(t, c.Children(), workers*perWorker)
}

func TestBase64Encode(t *testing.T) {
	assert.Equal(t, "A", base64Encode(0))
	assert.Equal(t, "~", base64Encode(63))
	assert.Equal(t, "AB", base64Encode(64))
	assert.Equal(t, "BB", base64Encode(65))
	assert.True(t, strings.HasPrefix(randomName(), "$"))
}

func TestStopThenRemove(t *testing.T) {
	c, _ := newTestCell()
	worker := mustActorOf(t, c, "worker")

	_, err := c.ActorOf(noopProps, "worker")
	require.True(t, IsNameTaken(err))

	c.Stop(worker)
	assert.True(t, c.IsTerminating())
	assert.Equal(t, int32(1), worker.stops.Load())
	toDie := c.ChildrenContainer().ToDie()
	require.Len(t, toDie, 1)
	assert.Same(t, worker, toDie[0])

	reason, changed := c.RemoveChildAndGetStateChange(worker)
	require.True(t, changed)
	assert.Equal(t, children.UserRequest, reason.Kind)
	assert.True(t, c.IsNormal())
	assert.Empty(t, c.ChildrenContainer().ToDie())
	_, ok := c.TryGetChild("worker")
	assert.False(t, ok)
}

func TestRemoveReportsTransitionOnce(t *testing.T) {
	c, _ := newTestCell()
	a := mustActorOf(t, c, "a")
	b := mustActorOf(t, c, "b")
	c.Stop(a)
	c.Stop(b)

	_, changed := c.RemoveChildAndGetStateChange(a)
	assert.False(t, changed)
	assert.True(t, c.IsTerminating())
	assert.Len(t, c.ChildrenContainer().ToDie(), 1)

	_, changed = c.RemoveChildAndGetStateChange(b)
	assert.True(t, changed)

	_, changed = c.RemoveChildAndGetStateChange(b)
	assert.False(t, changed)
}

func TestRemoveWhileNormalReportsNoTransition(t *testing.T) {
	c, _ := newTestCell()
	a := mustActorOf(t, c, "a")

	_, changed := c.RemoveChildAndGetStateChange(a)

	assert.False(t, changed)
	assert.Same(t, children.Empty(), c.ChildrenContainer())
}

func TestStopUntrackedChild(t *testing.T) {
	c, _ := newTestCell()
	mustActorOf(t, c, "a")
	before := c.ChildrenContainer()
	stranger := newTestRef(cellPath.Child("stranger", 42))

	c.Stop(stranger)

	assert.Same(t, before, c.ChildrenContainer())
	assert.Equal(t, int32(1), stranger.stops.Load())
}

func TestStopUnstartedRepointable(t *testing.T) {
	c, _ := newTestCell()
	uid, err := c.ReserveChild("lazy")
	require.NoError(t, err)
	lazy := &lazyRef{testRef: newTestRef(cellPath.Child("lazy", uid))}
	require.NotNil(t, c.InitChild(lazy))

	c.Stop(lazy)
	assert.True(t, c.IsNormal())
	assert.Equal(t, int32(1), lazy.stops.Load())

	lazy.started.Store(true)
	c.Stop(lazy)
	assert.True(t, c.IsTerminating())
	assert.Equal(t, int32(2), lazy.stops.Load())
}

func TestStopReservedNameReleasesIt(t *testing.T) {
	c, _ := newTestCell()
	uid, err := c.ReserveChild("pending")
	require.NoError(t, err)
	pending := newTestRef(cellPath.Child("pending", uid))

	c.Stop(newTestRef(cellPath.Child("pending", uid+1)))
	_, ok := c.ChildrenContainer().GetByName("pending")
	require.True(t, ok, "another incarnation does not release the name")

	c.Stop(pending)

	_, ok = c.ChildrenContainer().GetByName("pending")
	assert.False(t, ok)
	assert.True(t, c.IsNormal())
	assert.Empty(t, c.ChildrenContainer().ToDie())
	assert.Equal(t, int32(1), pending.stops.Load())
}

func TestInitChildIsIdempotent(t *testing.T) {
	c, _ := newTestCell()
	uid, err := c.ReserveChild("w")
	require.NoError(t, err)
	first := newTestRef(cellPath.Child("w", uid))
	second := newTestRef(cellPath.Child("w", uid+1))

	assert.Nil(t, c.InitChild(second), "the reservation belongs to another incarnation")
	s1 := c.InitChild(first)
	require.NotNil(t, s1)
	assert.Same(t, s1, c.InitChild(first))
	assert.Same(t, s1, c.InitChild(second), "the first winner is kept")
	assert.Same(t, first, s1.Child())

	assert.Nil(t, c.InitChild(newTestRef(cellPath.Child("unreserved", 12))))
}

func TestReserveAndUnreserve(t *testing.T) {
	c, _ := newTestCell()
	uid, err := c.ReserveChild("slot")
	require.NoError(t, err)
	assert.NotEqual(t, path.UndefinedUID, uid)
	_, err = c.ReserveChild("slot")
	assert.True(t, IsNameTaken(err))

	_, ok := c.TryGetChild("slot")
	assert.False(t, ok, "reservations are not children")

	c.UnreserveChild("slot")
	assert.Same(t, children.Empty(), c.ChildrenContainer())
}

func TestCreationAbortedWhenStoppedDuringConstruction(t *testing.T) {
	c, provider := newTestCell()
	provider.onConstruct = func(childPath *path.Path) {
		c.Stop(newTestRef(childPath))
	}

	_, err := c.ActorOf(noopProps, "doomed")

	assert.ErrorIs(t, err, ErrCreationAborted)
	require.Equal(t, 1, provider.constructed())
	created := provider.created[0]
	assert.Equal(t, int32(1), created.stops.Load())
	assert.Equal(t, int32(0), created.starts.Load())
	_, ok := c.ChildrenContainer().GetByName("doomed")
	assert.False(t, ok)
}

func TestStopOfRemovedIncarnationKeepsNewReservation(t *testing.T) {
	c, provider := newTestCell()
	old := mustActorOf(t, c, "w")
	c.Stop(old)
	_, changed := c.RemoveChildAndGetStateChange(old)
	require.True(t, changed)
	provider.onConstruct = func(*path.Path) {
		c.Stop(old)
	}

	ref, err := c.ActorOf(noopProps, "w")

	require.NoError(t, err)
	got, ok := c.TryGetChild("w")
	require.True(t, ok)
	assert.Same(t, ref, got)
	assert.NotEqual(t, old.Path().UID(), ref.Path().UID())
	assert.Equal(t, int32(2), old.stops.Load())
	assert.Equal(t, int32(1), ref.(*testRef).starts.Load())
}

func TestCreationAbortedWhenTerminatedDuringConstruction(t *testing.T) {
	c, provider := newTestCell()
	provider.onConstruct = func(*path.Path) {
		c.SetTerminated()
	}

	_, err := c.ActorOf(noopProps, "late")

	assert.ErrorIs(t, err, ErrCreationAborted)
	assert.True(t, c.IsTerminated())
}

func TestSuspendAndResumeChildren(t *testing.T) {
	c, _ := newTestCell()
	a := mustActorOf(t, c, "a")
	b := mustActorOf(t, c, "b")
	d := mustActorOf(t, c, "d")

	c.SuspendChildren(b)
	assert.Equal(t, int32(1), a.suspends.Load())
	assert.Equal(t, int32(0), b.suspends.Load())
	assert.Equal(t, int32(1), d.suspends.Load())

	boom := errors.New("boom")
	c.ResumeChildren(boom, b)
	assert.Equal(t, []error{nil}, a.resumeCauses())
	assert.Equal(t, []error{boom}, b.resumeCauses())
	assert.Equal(t, []error{nil}, d.resumeCauses())

	c.ResumeChildren(boom, nil)
	assert.Equal(t, []error{nil, nil}, a.resumeCauses())
}

func TestSetChildrenTerminationReason(t *testing.T) {
	c, _ := newTestCell()
	assert.False(t, c.SetChildrenTerminationReason(children.TerminationReason()))

	worker := mustActorOf(t, c, "worker")
	c.Stop(worker)
	assert.False(t, c.IsWaitingForChildren())

	boom := errors.New("boom")
	require.True(t, c.SetChildrenTerminationReason(children.RecreationReason(boom)))
	assert.True(t, c.IsWaitingForChildren())

	require.True(t, c.SetChildrenTerminationReason(children.TerminationReason()))
	assert.False(t, c.IsWaitingForChildren())

	_, changed := c.RemoveChildAndGetStateChange(worker)
	assert.True(t, changed)
	assert.True(t, c.IsTerminated())
}

func TestSetTerminatedIsFinal(t *testing.T) {
	c, _ := newTestCell()
	worker := mustActorOf(t, c, "worker")

	c.SetTerminated()

	assert.True(t, c.IsTerminated())
	assert.Empty(t, c.Children())
	_, changed := c.RemoveChildAndGetStateChange(worker)
	assert.False(t, changed)
	_, err := c.ReserveChild("x")
	assert.ErrorIs(t, err, ErrTerminating)
	assert.False(t, c.SetChildrenTerminationReason(children.UserRequestReason()))
	c.Stop(worker)
	assert.Same(t, children.Terminated(), c.ChildrenContainer())
}

func TestTryGetSingleChild(t *testing.T) {
	c, _ := newTestCell()
	worker := mustActorOf(t, c, "worker")
	uid := worker.Path().UID()

	got, ok := c.TryGetSingleChild("worker")
	require.True(t, ok)
	assert.Same(t, worker, got)

	got, ok = c.TryGetSingleChild(fmt.Sprintf("worker#%d", uid))
	require.True(t, ok)
	assert.Same(t, worker, got)

	_, ok = c.TryGetSingleChild(fmt.Sprintf("worker#%d", uid+1000))
	assert.False(t, ok)
	_, ok = c.TryGetSingleChild("nobody")
	assert.False(t, ok)

	stats, ok := c.TryGetChildStatsByRef(worker)
	require.True(t, ok)
	assert.Equal(t, uid, stats.UID())
}

func TestRecordChildRestart(t *testing.T) {
	c, _ := newTestCell()
	worker := mustActorOf(t, c, "worker")
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	stats, ok := c.RecordChildRestart(worker, now, time.Minute)
	require.True(t, ok)
	assert.Equal(t, 1, stats.RestartCount())
	stats, _ = c.RecordChildRestart(worker, now.Add(10*time.Second), time.Minute)
	assert.Equal(t, 2, stats.RestartCount())

	stored, ok := c.TryGetChildStatsByName("worker")
	require.True(t, ok)
	assert.Same(t, stats, stored)

	stats, _ = c.RecordChildRestart(worker, now.Add(5*time.Minute), time.Minute)
	assert.Equal(t, 1, stats.RestartCount())

	_, ok = c.RecordChildRestart(newTestRef(cellPath.Child("worker", 999999)), now, time.Minute)
	assert.False(t, ok)
}

func TestAttachChildIsAsync(t *testing.T) {
	c, provider := newTestCell()

	_, err := c.AttachChild(noopProps, "svc", true)
	require.NoError(t, err)
	assert.True(t, provider.lastAsync)
	assert.True(t, provider.lastSystemService)

	ref, err := c.AttachAnonymousChild(noopProps, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.Path().Name(), "$"))
	assert.False(t, provider.lastSystemService)

	_, err = c.ActorOf(noopProps, "sync")
	require.NoError(t, err)
	assert.False(t, provider.lastAsync)
}
