package countdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"numeraapi/internal/timeledger"
	"numeraapi/pkg/schemas"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeLedger records checkpoint and expiry writes and serves a fixed seed.
type fakeLedger struct {
	mu sync.Mutex

	seed    int
	readErr error

	checkpointErr error
	checkpoints   []int
	expirations   int
}

func (f *fakeLedger) Read(ctx context.Context, uid bson.ObjectID) (*schemas.TimeBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return &schemas.TimeBalance{Id: uid, RemainingSeconds: f.seed}, nil
}

func (f *fakeLedger) Checkpoint(ctx context.Context, uid bson.ObjectID, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkpointErr != nil {
		return f.checkpointErr
	}
	f.checkpoints = append(f.checkpoints, seconds)
	return nil
}

func (f *fakeLedger) Expire(ctx context.Context, uid bson.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expirations++
	return nil
}

func (f *fakeLedger) snapshot() ([]int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.checkpoints...), f.expirations
}

// fakeClock lets tests advance time one tick at a time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestCountdown(ledger Ledger, clk *fakeClock, cfg Config) *Countdown {
	cfg.UserId = bson.NewObjectID()
	cfg.Ledger = ledger
	cd := New(cfg)
	cd.now = clk.now
	return cd
}

func TestStartSeedsFromLedger(t *testing.T) {
	ledger := &fakeLedger{seed: 7200}
	cd := newTestCountdown(ledger, newFakeClock(), Config{})

	require.Equal(t, StateUninitialized, cd.State())
	require.NoError(t, cd.Start(context.Background()))
	require.Equal(t, StateRunning, cd.State())
	require.Equal(t, 7200, cd.Remaining())
}

func TestStartPassesThroughNotInitialized(t *testing.T) {
	ledger := &fakeLedger{readErr: timeledger.ErrNotInitialized}
	cd := newTestCountdown(ledger, newFakeClock(), Config{})

	err := cd.Start(context.Background())
	require.ErrorIs(t, err, timeledger.ErrNotInitialized)
	require.Equal(t, StateUninitialized, cd.State())
}

func TestStartWithZeroSeedExpiresImmediately(t *testing.T) {
	ledger := &fakeLedger{seed: 0}
	expired := 0
	cd := newTestCountdown(ledger, newFakeClock(), Config{
		OnExpire: func() { expired++ },
	})

	require.NoError(t, cd.Start(context.Background()))
	require.Equal(t, StateExpired, cd.State())
	require.Equal(t, 1, expired)

	// a previous session already recorded the expiry checkpoint
	_, expirations := ledger.snapshot()
	require.Zero(t, expirations)
}

func TestTickDecrementsWithoutEarlyCheckpoint(t *testing.T) {
	ledger := &fakeLedger{seed: 7200}
	clk := newFakeClock()
	var ticks []int
	cd := newTestCountdown(ledger, clk, Config{
		OnTick: func(remaining int) { ticks = append(ticks, remaining) },
	})

	ctx := context.Background()
	require.NoError(t, cd.Start(ctx))

	for range 10 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}

	require.Equal(t, 7190, cd.Remaining())
	require.Equal(t, []int{7199, 7198, 7197, 7196, 7195, 7194, 7193, 7192, 7191, 7190}, ticks)

	checkpoints, _ := ledger.snapshot()
	require.Empty(t, checkpoints, "no write before the checkpoint interval elapses")
}

func TestTickCheckpointsOnInterval(t *testing.T) {
	ledger := &fakeLedger{seed: 7200}
	clk := newFakeClock()
	cd := newTestCountdown(ledger, clk, Config{})

	ctx := context.Background()
	require.NoError(t, cd.Start(ctx))

	for range 30 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}

	checkpoints, _ := ledger.snapshot()
	require.Equal(t, []int{7170}, checkpoints)

	// the next interval produces exactly one more
	for range 30 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}

	checkpoints, _ = ledger.snapshot()
	require.Equal(t, []int{7170, 7140}, checkpoints)
}

func TestFailedCheckpointRetriesNextTick(t *testing.T) {
	ledger := &fakeLedger{seed: 7200, checkpointErr: errors.New("store unavailable")}
	clk := newFakeClock()
	cd := newTestCountdown(ledger, clk, Config{})

	ctx := context.Background()
	require.NoError(t, cd.Start(ctx))

	for range 30 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}

	checkpoints, _ := ledger.snapshot()
	require.Empty(t, checkpoints)
	require.Equal(t, 7170, cd.Remaining(), "local countdown keeps running through write failures")

	// store comes back: the very next tick flushes
	ledger.mu.Lock()
	ledger.checkpointErr = nil
	ledger.mu.Unlock()

	clk.advance(time.Second)
	cd.tick(ctx)

	checkpoints, _ = ledger.snapshot()
	require.Equal(t, []int{7169}, checkpoints)
}

func TestZeroCrossingFiresOnce(t *testing.T) {
	ledger := &fakeLedger{seed: 3}
	clk := newFakeClock()
	expired := 0
	var ticks []int
	cd := newTestCountdown(ledger, clk, Config{
		OnTick:   func(remaining int) { ticks = append(ticks, remaining) },
		OnExpire: func() { expired++ },
	})

	ctx := context.Background()
	require.NoError(t, cd.Start(ctx))

	for range 6 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}

	require.Equal(t, StateExpired, cd.State())
	require.Equal(t, 0, cd.Remaining())
	require.Equal(t, 1, expired)
	require.Equal(t, []int{2, 1, 0}, ticks, "ticks past expiry are no-ops")

	_, expirations := ledger.snapshot()
	require.Equal(t, 1, expirations)
}

func TestReconcileRejectsStaleEchoAdoptsTopUp(t *testing.T) {
	tests := []struct {
		name     string
		local    int
		incoming int
		want     int
	}{
		{"own checkpoint echo", 1000, 1003, 1000},
		{"exactly at threshold", 1000, 1005, 1000},
		{"genuine top-up", 1000, 1200, 1200},
		{"lower value never claws back", 1000, 400, 1000},
		{"equal value", 1000, 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedger{seed: tt.local}
			cd := newTestCountdown(ledger, newFakeClock(), Config{})

			require.NoError(t, cd.Start(context.Background()))
			cd.reconcile(tt.incoming)
			require.Equal(t, tt.want, cd.Remaining())
		})
	}
}

func TestReconcileRevivesExpiredCountdown(t *testing.T) {
	ledger := &fakeLedger{seed: 1}
	clk := newFakeClock()
	expired := 0
	cd := newTestCountdown(ledger, clk, Config{
		OnExpire: func() { expired++ },
	})

	ctx := context.Background()
	require.NoError(t, cd.Start(ctx))

	clk.advance(time.Second)
	cd.tick(ctx)
	require.Equal(t, StateExpired, cd.State())
	require.Equal(t, 1, expired)

	// admin top-up lands through the live subscription
	cd.reconcile(1800)
	require.Equal(t, StateRunning, cd.State())
	require.Equal(t, 1800, cd.Remaining())

	// the revived countdown can expire again
	for range 1800 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}
	require.Equal(t, StateExpired, cd.State())
	require.Equal(t, 2, expired)

	_, expirations := ledger.snapshot()
	require.Equal(t, 2, expirations)
}

func TestTopUpDuringSessionExtendsCountdown(t *testing.T) {
	ledger := &fakeLedger{seed: 7200}
	clk := newFakeClock()
	cd := newTestCountdown(ledger, clk, Config{})

	ctx := context.Background()
	require.NoError(t, cd.Start(ctx))

	for range 45 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}

	checkpoints, _ := ledger.snapshot()
	require.Equal(t, []int{7170}, checkpoints, "one checkpoint landed mid-session")
	require.Equal(t, 7155, cd.Remaining())

	// a concurrent top-up adds an hour to the authoritative balance
	cd.reconcile(7155 + 3600)
	require.Equal(t, 10755, cd.Remaining())
	require.Equal(t, StateRunning, cd.State())

	// the next interval checkpoint carries the extended value
	for range 30 {
		clk.advance(time.Second)
		cd.tick(ctx)
	}
	checkpoints, _ = ledger.snapshot()
	require.Equal(t, []int{7170, 10740}, checkpoints)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ledger := &fakeLedger{seed: 7200}
	cd := newTestCountdown(ledger, newFakeClock(), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cd.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
