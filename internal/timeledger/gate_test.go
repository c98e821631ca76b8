package timeledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestGateVerdictsAreDistinguishable(t *testing.T) {
	store := newMemStore()
	ledger := New(store)
	gate := NewGate(store)
	ctx := context.Background()

	// missing balance: setup problem, not a paywall
	err := gate.Check(ctx, bson.NewObjectID())
	require.ErrorIs(t, err, ErrNotInitialized)
	require.NotErrorIs(t, err, ErrTimeExpired)

	// zero balance: paywall
	uid := bson.NewObjectID()
	require.NoError(t, ledger.CreateIfAbsent(ctx, uid, 0))
	err = gate.Check(ctx, uid)
	require.ErrorIs(t, err, ErrTimeExpired)
	require.NotErrorIs(t, err, ErrNotInitialized)

	// positive balance: proceed
	uid2 := bson.NewObjectID()
	require.NoError(t, ledger.CreateIfAbsent(ctx, uid2, 7200))
	require.NoError(t, gate.Check(ctx, uid2))
}

func TestGateTreatsNegativeAsExpired(t *testing.T) {
	store := newMemStore()
	gate := NewGate(store)
	uid := bson.NewObjectID()

	store.setRemaining(uid, -30)

	require.ErrorIs(t, gate.Check(context.Background(), uid), ErrTimeExpired)
}

func TestGateIsIdempotent(t *testing.T) {
	store := newMemStore()
	ledger := New(store)
	gate := NewGate(store)
	ctx := context.Background()
	uid := bson.NewObjectID()

	require.NoError(t, ledger.CreateIfAbsent(ctx, uid, 1))
	require.NoError(t, gate.Check(ctx, uid))
	require.NoError(t, gate.Check(ctx, uid), "same verdict with no time elapsed")
}

func TestGateNeverFailsOpen(t *testing.T) {
	store := newMemStore()
	gate := NewGate(store)

	storeErr := errors.New("store unavailable")
	store.err = storeErr

	err := gate.Check(context.Background(), bson.NewObjectID())
	require.ErrorIs(t, err, storeErr)
}

// Expiry, denial, top-up, retry: the full paywall loop.
func TestExpiredActionRecoversAfterTopUp(t *testing.T) {
	store := newMemStore()
	ledger := New(store)
	gate := NewGate(store)
	ctx := context.Background()
	uid := bson.NewObjectID()
	admin := bson.NewObjectID()

	require.NoError(t, ledger.CreateIfAbsent(ctx, uid, 7200))
	require.NoError(t, ledger.Expire(ctx, uid))

	require.ErrorIs(t, gate.Check(ctx, uid), ErrTimeExpired)

	total, err := ledger.AdminTopUp(ctx, uid, 1800, admin, "support request")
	require.NoError(t, err)
	require.Equal(t, 1800, total)

	require.NoError(t, gate.Check(ctx, uid))
}
