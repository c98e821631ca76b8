package schemas

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

type StageQuestion struct {
	Prompt    string   `bson:"prompt"`
	Choices   []string `bson:"choices"`
	AnswerIdx int      `bson:"answerIdx"`
}

// Stage is one video+quiz unit of the course. Stages unlock in idx
// order as the learner passes each quiz.
type Stage struct {
	Id        bson.ObjectID   `bson:"_id,omitempty"`
	Idx       int             `bson:"idx"`
	Title     string          `bson:"title"`
	VideoUrl  string          `bson:"videoUrl"`
	Questions []StageQuestion `bson:"questions"`
}
