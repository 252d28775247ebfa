package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/models"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/repository"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/errors"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

type State int32

const (
	StateNormal State = iota
	StateSuspended
	StateConsolidating
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateSuspended:
		return "suspended"
	case StateConsolidating:
		return "consolidating"
	}
	return "unknown"
}

func parseState(s string) State {
	switch s {
	case "suspended":
		return StateSuspended
	case "consolidating":
		return StateConsolidating
	}
	return StateNormal
}

// Coordinator is the bulk-load gate: a single flag every delta and
// rebuild hook reads before doing any work. Transitions are serialized
// under a mutex and persisted so a load left suspended is visible after
// a restart; the flag read itself is a lock-free atomic since it sits
// on every write path.
//
// Only one bulk load may run at a time. Begin enforces that within this
// process; cross-process exclusion is the caller's responsibility.
type Coordinator struct {
	mu     sync.Mutex
	state  atomic.Int32
	since  atomic.Int64
	states *repository.StateRepository
}

func NewCoordinator(ctx context.Context, states *repository.StateRepository) (*Coordinator, error) {
	c := &Coordinator{states: states}

	persisted, err := states.Get(ctx, models.StateRowBulkLoad)
	if err != nil {
		return nil, err
	}
	s := parseState(persisted)
	c.state.Store(int32(s))
	c.since.Store(time.Now().Unix())

	if s != StateNormal {
		logger.WithFields(map[string]interface{}{
			"state": s.String(),
		}).Warn("bulk-load state carried over from previous run; aggregates are stale until consolidation completes")
	}
	return c, nil
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Since reports when the coordinator last changed state; the scheduler
// uses it to alert on a bulk load parked in suspended.
func (c *Coordinator) Since() time.Time {
	return time.Unix(c.since.Load(), 0)
}

func (c *Coordinator) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.State(); s != StateNormal {
		return errors.New(errors.ErrBulkLoadState, "bulk load already in progress (state "+s.String()+")", nil)
	}
	return c.set(ctx, StateSuspended)
}

// StartConsolidating is valid from Suspended, and from Consolidating so
// an interrupted consolidation can be re-driven.
func (c *Coordinator) StartConsolidating(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case StateSuspended, StateConsolidating:
		return c.set(ctx, StateConsolidating)
	default:
		return errors.New(errors.ErrBulkLoadState, "no bulk load to consolidate", nil)
	}
}

func (c *Coordinator) Finish(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != StateConsolidating {
		return errors.New(errors.ErrBulkLoadState, "not consolidating", nil)
	}
	return c.set(ctx, StateNormal)
}

// BeginBulkLoad suspends all aggregate maintenance for a mass import.
func (e *Engine) BeginBulkLoad(ctx context.Context) error {
	return e.coordinator.Begin(ctx)
}

// EndBulkLoad runs the consolidation pass: one full rebuild of every
// aggregate table plus identifier-generator resync, then back to
// normal. If any step fails the coordinator stays in consolidating and
// EndBulkLoad can simply be called again; the ledger is already durable
// and every step is idempotent. Never reset the state to normal without
// completing this pass, or aggregates stay stale indefinitely.
func (e *Engine) EndBulkLoad(ctx context.Context) error {
	if err := e.coordinator.StartConsolidating(ctx); err != nil {
		return err
	}

	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	if err := e.rebuildAllLocked(ctx); err != nil {
		return err
	}
	if err := e.ResyncIdentifiers(ctx); err != nil {
		return err
	}
	return e.coordinator.Finish(ctx)
}

func (c *Coordinator) set(ctx context.Context, s State) error {
	if err := c.states.Set(ctx, models.StateRowBulkLoad, s.String()); err != nil {
		return errors.New(errors.ErrBulkLoadState, "failed to persist state", err)
	}
	c.state.Store(int32(s))
	c.since.Store(time.Now().Unix())

	logger.WithFields(map[string]interface{}{
		"state": s.String(),
	}).Info("bulk-load state changed")
	return nil
}
