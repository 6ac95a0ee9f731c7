package actor

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hedisam/actorcell/children"
	"github.com/hedisam/actorcell/internal/logging"
)

// Cell tracks the children of one actor. Every method is safe for concurrent use; the
// only shared state is the pointer to the current immutable children container.
type Cell struct {
	self     Ref
	provider Provider
	children atomic.Pointer[children.Container]
	logger   zerolog.Logger
}

type CellOption func(*Cell)

// WithLogger replaces the cell's logger.
func WithLogger(logger zerolog.Logger) CellOption {
	return func(c *Cell) {
		c.logger = logger
	}
}

// NewCell returns a cell for self with no children. provider constructs the children.
func NewCell(self Ref, provider Provider, opts ...CellOption) *Cell {
	c := &Cell{
		self:     self,
		provider: provider,
		logger:   logging.Logger("cell"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("actor", self.Path().String()).Logger()
	c.children.Store(children.Empty())
	return c
}

// Self returns the ref owning this cell.
func (c *Cell) Self() Ref {
	return c.self
}

// ChildrenContainer returns the current snapshot.
func (c *Cell) ChildrenContainer() *children.Container {
	return c.children.Load()
}

func (c *Cell) IsNormal() bool {
	return c.ChildrenContainer().IsNormal()
}

func (c *Cell) IsTerminating() bool {
	return c.ChildrenContainer().IsTerminating()
}

func (c *Cell) IsTerminated() bool {
	return c.ChildrenContainer().IsTerminated()
}

// IsWaitingForChildren reports whether the cell is terminating for a reason that keeps
// it waiting until the awaited children are gone.
func (c *Cell) IsWaitingForChildren() bool {
	reason, ok := c.ChildrenContainer().Reason()
	return ok && reason.IsWaitingForChildren()
}
