// Package mailbox implements the queue mailbox of local actors: a bounded ring buffer for
// user messages and an unbounded queue for system messages.
package mailbox

import (
	"errors"
	"sync/atomic"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/hedisam/actorcell/sysmsg"
)

// DefaultUserCapacity is used when no capacity is configured.
const DefaultUserCapacity uint64 = 1024

const systemHint = 8

const (
	mailboxOpen int32 = iota
	mailboxDisposed
)

var (
	// ErrFull is returned when the user queue is at capacity.
	ErrFull = errors.New("mailbox: full")
	// ErrDisposed is returned after Dispose.
	ErrDisposed = errors.New("mailbox: disposed")
)

// Queue is a multi producer, single consumer mailbox. Producers post messages and the
// owning actor goroutine waits on Signal and drains system messages before user ones.
type Queue struct {
	userMailbox *queue.RingBuffer
	sysMailbox  *queue.Queue
	signal      chan struct{}
	done        chan struct{}
	status      int32
}

// New returns a mailbox whose user queue holds capacity messages.
func New(capacity uint64) *Queue {
	if capacity == 0 {
		capacity = DefaultUserCapacity
	}
	return &Queue{
		userMailbox: queue.NewRingBuffer(capacity),
		sysMailbox:  queue.New(systemHint),
		signal:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		status:      mailboxOpen,
	}
}

// PostUser enqueues a user message without blocking.
func (m *Queue) PostUser(message interface{}) error {
	if m.IsDisposed() {
		return ErrDisposed
	}
	ok, err := m.userMailbox.Offer(message)
	if err != nil {
		return ErrDisposed
	}
	if !ok {
		return ErrFull
	}
	m.notify()
	return nil
}

// PostSystem enqueues a system message.
func (m *Queue) PostSystem(message sysmsg.SystemMessage) error {
	if m.IsDisposed() {
		return ErrDisposed
	}
	if err := m.sysMailbox.Put(message); err != nil {
		return ErrDisposed
	}
	m.notify()
	return nil
}

func (m *Queue) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
		// a wake up is already pending
	}
}

// Signal fires at least once after every post.
func (m *Queue) Signal() <-chan struct{} {
	return m.signal
}

// Done is closed by Dispose.
func (m *Queue) Done() <-chan struct{} {
	return m.done
}

// PopSystem returns the next system message, if any. Only the owning goroutine pops.
func (m *Queue) PopSystem() (sysmsg.SystemMessage, bool) {
	if m.sysMailbox.Len() == 0 {
		return nil, false
	}
	items, err := m.sysMailbox.Get(1)
	if err != nil || len(items) == 0 {
		return nil, false
	}
	msg, ok := items[0].(sysmsg.SystemMessage)
	return msg, ok
}

// PopUser returns the next user message, if any.
func (m *Queue) PopUser() (interface{}, bool) {
	if m.userMailbox.Len() == 0 {
		return nil, false
	}
	msg, err := m.userMailbox.Get()
	if err != nil {
		return nil, false
	}
	return msg, true
}

// HasSystemMessages reports whether system messages are queued.
func (m *Queue) HasSystemMessages() bool {
	return m.sysMailbox.Len() != 0
}

// HasUserMessages reports whether user messages are queued.
func (m *Queue) HasUserMessages() bool {
	return m.userMailbox.Len() != 0
}

// IsDisposed reports whether Dispose was called.
func (m *Queue) IsDisposed() bool {
	return atomic.LoadInt32(&m.status) == mailboxDisposed
}

// Dispose rejects further posts and releases both queues. Safe to call repeatedly.
func (m *Queue) Dispose() {
	if atomic.CompareAndSwapInt32(&m.status, mailboxOpen, mailboxDisposed) {
		close(m.done)
		m.userMailbox.Dispose()
		m.sysMailbox.Dispose()
	}
}
