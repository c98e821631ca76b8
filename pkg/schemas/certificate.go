package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Certificate struct {
	Id          bson.ObjectID `bson:"_id,omitempty"`
	UserId      bson.ObjectID `bson:"userId"`
	Serial      string        `bson:"serial"`
	FullName    string        `bson:"fullName"`
	CourseTitle string        `bson:"courseTitle"`
	IssuedAt    time.Time     `bson:"issuedAt"`
}
