package timeledger

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Gate is the enforcement point for budget-gated actions. It reads the
// authoritative balance on every check and never consults any
// client-supplied value.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Check returns nil when the user has positive remaining time,
// ErrNotInitialized when no balance exists, ErrTimeExpired when the
// balance is used up, and the store error otherwise. A store failure is
// a hard failure: the gated action must not proceed without a clean
// check.
func (g *Gate) Check(ctx context.Context, uid bson.ObjectID) error {

	tb, err := g.store.Get(ctx, uid)
	if err != nil {
		return err
	}

	// a transiently negative value counts as expired, never an error
	if tb.RemainingSeconds <= 0 {
		return ErrTimeExpired
	}

	return nil

}
