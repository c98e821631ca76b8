package schemas

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

type QuickTestQuestion struct {
	Id        bson.ObjectID `bson:"_id,omitempty"`
	Level     int           `bson:"level"`
	Prompt    string        `bson:"prompt"`
	Choices   []string      `bson:"choices"`
	AnswerIdx int           `bson:"answerIdx"`
	Points    int           `bson:"points"`
}

type LeaderboardEntry struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
	Dir      int     `json:"dir"`
}
