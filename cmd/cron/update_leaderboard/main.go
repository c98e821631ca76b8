package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Rebuilds the cached quick-test leaderboard from the live score ZSET,
// carrying rank movement direction relative to the previous snapshot.
// Scheduled externally.
func main() {

	ctx := context.Background()

	// init redis
	redisCli := redis.NewClient(&redis.Options{
		Addr:     config.ENV.REDIS_ADDR,
		Username: config.ENV.REDIS_USERNAME,
		Password: config.ENV.REDIS_PASSWORD,
		DB:       0,
	})

	// init mongo
	mongoServerAPI := options.ServerAPI(options.ServerAPIVersion1)
	mongoOpts := options.Client().ApplyURI(config.ENV.MONGO_URI).SetServerAPIOptions(mongoServerAPI)
	mongoCli, err := mongo.Connect(mongoOpts)
	if err != nil {
		log.Fatal(err)
	}
	defer mongoCli.Disconnect(ctx)
	db := mongoCli.Database(config.MONGO_DB)

	// current top scores
	top, err := redisCli.ZRevRangeWithScores(ctx, "quicktest:scores", 0, config.LEADERBOARD_SIZE-1).Result()
	if err != nil {
		log.Fatal(err)
	}

	// resolve display names
	ids := make([]bson.ObjectID, 0, len(top))
	for _, z := range top {
		uid, err := bson.ObjectIDFromHex(z.Member.(string))
		if err != nil {
			log.Fatal(err)
		}
		ids = append(ids, uid)
	}
	cursor, err := db.Collection("users").Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"fullName": 1}),
	)
	if err != nil {
		log.Fatal(err)
	}
	var users []struct {
		Id       bson.ObjectID `bson:"_id"`
		FullName string        `bson:"fullName"`
	}
	if err := cursor.All(ctx, &users); err != nil {
		log.Fatal(err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.Id.Hex()] = u.FullName
	}

	newLeaderboard := make([]*schemas.LeaderboardEntry, len(top))
	for i, z := range top {
		newLeaderboard[i] = &schemas.LeaderboardEntry{
			Username: names[z.Member.(string)],
			Score:    z.Score,
			Dir:      1,
		}
	}

	// compute movement against the last snapshot
	lastlb, err := redisCli.Get(ctx, "quicktest:top").Result()
	if err == nil {

		var lastLeaderboard []*schemas.LeaderboardEntry
		if err := json.Unmarshal([]byte(lastlb), &lastLeaderboard); err != nil {
			log.Fatal(err)
		}

		for i := range newLeaderboard {
			for j := range lastLeaderboard {
				if newLeaderboard[i].Username == lastLeaderboard[j].Username {
					if j-i >= 0 {
						newLeaderboard[i].Dir = 1
					} else {
						newLeaderboard[i].Dir = -1
					}
					break
				}
			}
		}

	} else if !errors.Is(err, redis.Nil) {
		log.Fatal(err)
	}

	data, err := json.Marshal(&newLeaderboard)
	if err != nil {
		log.Fatal(err)
	}

	if err := redisCli.Set(ctx, "quicktest:top", data, 0).Err(); err != nil {
		log.Fatal(err)
	}

	log.Printf("leaderboard refreshed, %d entries", len(newLeaderboard))

}
