package timeledger

import (
	"context"
	"errors"

	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoStore keeps balance documents in the time_balances collection,
// keyed by user id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("time_balances")}
}

func (s *MongoStore) Get(ctx context.Context, uid bson.ObjectID) (*schemas.TimeBalance, error) {

	var tb schemas.TimeBalance
	if err := s.coll.FindOne(ctx, bson.M{"_id": uid}).Decode(&tb); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}

	return &tb, nil

}

func (s *MongoStore) Create(ctx context.Context, tb *schemas.TimeBalance) error {

	if _, err := s.coll.InsertOne(ctx, tb); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return err
	}

	return nil

}

func (s *MongoStore) Overwrite(ctx context.Context, uid bson.ObjectID, seconds int, adj schemas.Adjustment) error {

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set": bson.M{
				"remainingSeconds": seconds,
				"lastSyncedAt":     adj.At,
			},
			"$push": bson.M{"history": adj},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotInitialized
	}

	return nil

}

// AddAtomic uses a pipeline update so the increment, the post-increment
// snapshot inside the history entry, and the append all land in one
// atomic document write. Upserts a seed document when none exists.
func (s *MongoStore) AddAtomic(ctx context.Context, uid bson.ObjectID, delta int, adj schemas.Adjustment) (int, error) {

	newRemaining := bson.D{{Key: "$add", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$remainingSeconds", 0}}},
		delta,
	}}}

	adjDoc := bson.D{
		{Key: "kind", Value: adj.Kind},
		{Key: "deltaSeconds", Value: delta},
		{Key: "seconds", Value: newRemaining},
		{Key: "reason", Value: bson.D{{Key: "$literal", Value: adj.Reason}}},
		{Key: "at", Value: adj.At},
	}
	if adj.ActorId != "" {
		adjDoc = append(adjDoc, bson.E{Key: "actorId", Value: bson.D{{Key: "$literal", Value: adj.ActorId}}})
	}

	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "ctime", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$ctime", adj.At}}}},
			{Key: "remainingSeconds", Value: newRemaining},
			{Key: "lastSyncedAt", Value: adj.At},
			{Key: "history", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$history", bson.A{}}}},
				bson.A{adjDoc},
			}}}},
		}}},
	}

	var tb schemas.TimeBalance
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": uid},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&tb)
	if err != nil {
		return 0, err
	}

	return tb.RemainingSeconds, nil

}

// Watch streams authoritative remainingSeconds values for one user via
// a change stream. The channel closes when ctx is canceled.
func (s *MongoStore) Watch(ctx context.Context, uid bson.ObjectID) (<-chan int, error) {

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"documentKey._id": uid}}},
	}
	cs, err := s.coll.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	ch := make(chan int, 1)
	go func() {
		defer close(ch)
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			var ev struct {
				FullDocument schemas.TimeBalance `bson:"fullDocument"`
			}
			if err := cs.Decode(&ev); err != nil {
				continue
			}
			select {
			case ch <- ev.FullDocument.RemainingSeconds:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil

}
