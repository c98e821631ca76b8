package timeledger

import (
	"context"
	"errors"

	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrNotInitialized means no balance document exists for the user.
	// Distinct from a zero balance: it is a setup problem, not a paywall.
	ErrNotInitialized = errors.New("time balance not initialized")

	// ErrTimeExpired means the authoritative remaining time is used up.
	ErrTimeExpired = errors.New("time expired")

	ErrAlreadyExists = errors.New("time balance already exists")
)

// Store is the durable-store contract the time ledger requires:
// get, check-then-create, overwrite, and an atomic add that lands the
// numeric change and its history entry together or not at all.
type Store interface {

	// Get returns the balance document, or ErrNotInitialized.
	Get(ctx context.Context, uid bson.ObjectID) (*schemas.TimeBalance, error)

	// Create inserts a new balance document. Returns ErrAlreadyExists if
	// one is present; it never overwrites.
	Create(ctx context.Context, tb *schemas.TimeBalance) error

	// Overwrite sets remainingSeconds and lastSyncedAt to the supplied
	// value and appends adj. Last writer wins. Returns ErrNotInitialized
	// if the document is missing.
	Overwrite(ctx context.Context, uid bson.ObjectID, seconds int, adj schemas.Adjustment) error

	// AddAtomic increments remainingSeconds by delta and appends adj in
	// one atomic document update, seeding a new document when none
	// exists. Returns the resulting total.
	AddAtomic(ctx context.Context, uid bson.ObjectID, delta int, adj schemas.Adjustment) (int, error)
}
