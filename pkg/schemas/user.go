package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Progress struct {
	StageIdx        int        `bson:"stageIdx" json:"stageIdx"` // next unlocked stage
	CompletedStages []int      `bson:"completedStages" json:"completedStages"`
	CompletedAt     *time.Time `bson:"completedAt" json:"completedAt,omitempty"`
}

type User struct {
	Id             bson.ObjectID `bson:"_id,omitempty"`
	Ctime          time.Time     `bson:"ctime"`
	Email          string        `bson:"email"`
	EmailVerified  bool          `bson:"emailVerified"`
	PassHash       string        `bson:"passHash"`
	FullName       string        `bson:"fullName"`
	Role           string        `bson:"role"` // "" or "admin"
	StripeCustomer string        `bson:"stripeCustomer"`
	Progress       Progress      `bson:"progress"`
}
