package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Adjustment kinds. The history log only ever grows; entries are never
// edited or removed.
const (
	AdjustInit       = "init"
	AdjustAdminAdd   = "admin_add"
	AdjustCheckpoint = "countdown_checkpoint"
	AdjustExpiry     = "expiry"
	AdjustPurchase   = "purchase_add"
)

// Adjustment records one accepted change to a user's remaining time.
// DeltaSeconds is the signed change, Seconds the resulting balance, so
// the log is self-auditing.
type Adjustment struct {
	Kind         string    `bson:"kind" json:"kind"`
	DeltaSeconds int       `bson:"deltaSeconds" json:"deltaSeconds"`
	Seconds      int       `bson:"seconds" json:"seconds"`
	Reason       string    `bson:"reason" json:"reason"`
	At           time.Time `bson:"at" json:"at"`
	ActorId      string    `bson:"actorId,omitempty" json:"actorId,omitempty"`
}

// TimeBalance is the authoritative remaining-time record, one document
// per user keyed by the user's id.
type TimeBalance struct {
	Id               bson.ObjectID `bson:"_id,omitempty"`
	Ctime            time.Time     `bson:"ctime"`
	RemainingSeconds int           `bson:"remainingSeconds"`
	LastSyncedAt     time.Time     `bson:"lastSyncedAt"`
	History          []Adjustment  `bson:"history"`
}
