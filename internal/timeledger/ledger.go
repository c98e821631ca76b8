package timeledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Ledger owns every mutation of a user's authoritative remaining time.
// All additive paths go through the store's atomic add so concurrent
// writers never lose an increment; checkpoint overwrites are
// last-writer-wins and reserved for the countdown writer.
type Ledger struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateIfAbsent seeds a balance at registration. Re-running it is a
// no-op: an existing balance is never reset.
func (l *Ledger) CreateIfAbsent(ctx context.Context, uid bson.ObjectID, initialSeconds int) error {

	_, err := l.store.Get(ctx, uid)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotInitialized) {
		return err
	}

	now := l.now()
	tb := &schemas.TimeBalance{
		Id:               uid,
		Ctime:            now,
		RemainingSeconds: initialSeconds,
		LastSyncedAt:     now,
		History: []schemas.Adjustment{{
			Kind:         schemas.AdjustInit,
			DeltaSeconds: initialSeconds,
			Seconds:      initialSeconds,
			Reason:       "initial grant",
			At:           now,
		}},
	}

	if err := l.store.Create(ctx, tb); err != nil {
		// another writer created it between the check and the insert
		if errors.Is(err, ErrAlreadyExists) {
			return nil
		}
		return err
	}

	return nil

}

// Read returns the balance with a transiently negative remaining value
// clamped to zero.
func (l *Ledger) Read(ctx context.Context, uid bson.ObjectID) (*schemas.TimeBalance, error) {

	tb, err := l.store.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if tb.RemainingSeconds < 0 {
		tb.RemainingSeconds = 0
	}

	return tb, nil

}

// Checkpoint overwrites the authoritative value with the countdown
// writer's local value. DeltaSeconds is not recorded for overwrites;
// the snapshot alone carries the audit information.
func (l *Ledger) Checkpoint(ctx context.Context, uid bson.ObjectID, seconds int) error {

	if seconds < 0 {
		seconds = 0
	}

	return l.store.Overwrite(ctx, uid, seconds, schemas.Adjustment{
		Kind:    schemas.AdjustCheckpoint,
		Seconds: seconds,
		Reason:  "countdown checkpoint",
		At:      l.now(),
	})

}

// Expire records the countdown's zero-crossing.
func (l *Ledger) Expire(ctx context.Context, uid bson.ObjectID) error {

	return l.store.Overwrite(ctx, uid, 0, schemas.Adjustment{
		Kind:    schemas.AdjustExpiry,
		Seconds: 0,
		Reason:  "countdown expired",
		At:      l.now(),
	})

}

// AdminTopUp atomically credits secondsToAdd and appends the matching
// history entry. actorId must be the server-verified admin identity.
// Seeds a balance when none exists (one combined write).
func (l *Ledger) AdminTopUp(ctx context.Context, uid bson.ObjectID, secondsToAdd int, actorId bson.ObjectID, reason string) (int, error) {

	if secondsToAdd <= 0 {
		return 0, fmt.Errorf("top-up must be positive, got %d", secondsToAdd)
	}

	return l.store.AddAtomic(ctx, uid, secondsToAdd, schemas.Adjustment{
		Kind:    schemas.AdjustAdminAdd,
		Reason:  reason,
		At:      l.now(),
		ActorId: actorId.Hex(),
	})

}

// CreditPurchase credits a purchased time pack. The caller is
// responsible for at-most-once delivery per checkout session.
func (l *Ledger) CreditPurchase(ctx context.Context, uid bson.ObjectID, seconds int, checkoutSessionId string) (int, error) {

	if seconds <= 0 {
		return 0, fmt.Errorf("purchase credit must be positive, got %d", seconds)
	}

	return l.store.AddAtomic(ctx, uid, seconds, schemas.Adjustment{
		Kind:    schemas.AdjustPurchase,
		Reason:  "stripe checkout " + checkoutSessionId,
		At:      l.now(),
		ActorId: "stripe",
	})

}
