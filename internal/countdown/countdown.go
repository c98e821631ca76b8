// Package countdown runs the per-session remaining-time engine: it
// seeds from the authoritative balance, free-runs one decrement per
// second, periodically checkpoints back to the ledger, and reconciles
// incoming authoritative values (e.g. an admin top-up observed through
// a live subscription) without ever adopting its own stale echo.
package countdown

import (
	"context"
	"sync"
	"time"

	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExpired:
		return "expired"
	default:
		return "uninitialized"
	}
}

// Ledger is the slice of the time ledger the countdown writes through.
type Ledger interface {
	Read(ctx context.Context, uid bson.ObjectID) (*schemas.TimeBalance, error)
	Checkpoint(ctx context.Context, uid bson.ObjectID, seconds int) error
	Expire(ctx context.Context, uid bson.ObjectID) error
}

// Watcher delivers authoritative remainingSeconds values pushed by
// other writers. The channel must close when ctx is canceled.
type Watcher interface {
	Watch(ctx context.Context, uid bson.ObjectID) (<-chan int, error)
}

type Config struct {
	UserId  bson.ObjectID
	Ledger  Ledger
	Watcher Watcher // optional; nil disables live reconciliation

	// CheckpointEvery defaults to config.CHECKPOINT_INTERVAL.
	CheckpointEvery time.Duration
	// AdoptThreshold defaults to config.ADOPT_THRESHOLD.
	AdoptThreshold int

	OnTick   func(remaining int)
	OnExpire func()
	Logger   *zap.Logger
}

// Countdown is session-scoped: one instance per active client session,
// constructed on session start and torn down by canceling the Run
// context. It is safe for concurrent use by the tick loop and the
// reconciliation callback.
type Countdown struct {
	cfg Config
	now func() time.Time

	mu          sync.Mutex
	state       State
	remaining   int
	lastWrite   time.Time
	expireFired bool
}

func New(cfg Config) *Countdown {

	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = config.CHECKPOINT_INTERVAL
	}
	if cfg.AdoptThreshold <= 0 {
		cfg.AdoptThreshold = config.ADOPT_THRESHOLD
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Countdown{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}

}

func (c *Countdown) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Start seeds the local value from the authoritative balance. Only an
// uninitialized countdown seeds; a running one keeps its local value.
func (c *Countdown) Start(ctx context.Context) error {

	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	tb, err := c.cfg.Ledger.Read(ctx, c.cfg.UserId)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.remaining = tb.RemainingSeconds
	c.lastWrite = c.now()
	if c.remaining > 0 {
		c.state = StateRunning
		c.mu.Unlock()
		return nil
	}

	// already out of time on arrival: surface the paywall without
	// rewriting the expiry checkpoint a previous session recorded
	c.state = StateExpired
	c.expireFired = true
	c.mu.Unlock()
	if c.cfg.OnExpire != nil {
		c.cfg.OnExpire()
	}

	return nil

}

// Run drives the engine until ctx is canceled. The ticker and the watch
// subscription are both released on every exit path.
func (c *Countdown) Run(ctx context.Context) error {

	if err := c.Start(ctx); err != nil {
		return err
	}

	var updates <-chan int
	if c.cfg.Watcher != nil {
		u, err := c.cfg.Watcher.Watch(ctx, c.cfg.UserId)
		if err != nil {
			// countdown still works, it just won't see live top-ups
			c.cfg.Logger.Warn("live balance updates unavailable", zap.Error(err))
		} else {
			updates = u
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.tick(ctx)
		case v, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			c.reconcile(v)
		}
	}

}

// tick performs one 1 Hz decrement. The zero-crossing fires the expiry
// checkpoint and notification exactly once; further ticks at zero are
// no-ops until an adopted top-up returns the engine to running.
func (c *Countdown) tick(ctx context.Context) {

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return
	}

	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = StateExpired
		fired := c.expireFired
		c.expireFired = true
		c.mu.Unlock()

		if !fired {
			if err := c.cfg.Ledger.Expire(ctx, c.cfg.UserId); err != nil {
				c.cfg.Logger.Error("expiry checkpoint write failed", zap.Error(err))
			}
			if c.cfg.OnExpire != nil {
				c.cfg.OnExpire()
			}
		}
		if c.cfg.OnTick != nil {
			c.cfg.OnTick(0)
		}
		return
	}

	rem := c.remaining
	needWrite := c.now().Sub(c.lastWrite) >= c.cfg.CheckpointEvery
	c.mu.Unlock()

	if needWrite {
		if err := c.cfg.Ledger.Checkpoint(ctx, c.cfg.UserId, rem); err != nil {
			// non-fatal: lastWrite stays put, so the next tick retries
			c.cfg.Logger.Warn("checkpoint write failed", zap.Error(err))
		} else {
			c.mu.Lock()
			c.lastWrite = c.now()
			c.mu.Unlock()
		}
	}

	if c.cfg.OnTick != nil {
		c.cfg.OnTick(rem)
	}

}

// reconcile applies an incoming authoritative value only when it is
// significantly greater than the local one. That rejects the stale echo
// of this session's own checkpoint writes while still adopting genuine
// top-ups, and it never lets a slow pull claw back time the user is
// actively spending.
func (c *Countdown) reconcile(v int) {

	c.mu.Lock()
	if c.state == StateUninitialized || v <= c.remaining+c.cfg.AdoptThreshold {
		c.mu.Unlock()
		return
	}

	c.remaining = v
	if c.state == StateExpired {
		c.state = StateRunning
		c.expireFired = false
	}
	rem := c.remaining
	c.mu.Unlock()

	if c.cfg.OnTick != nil {
		c.cfg.OnTick(rem)
	}

}
