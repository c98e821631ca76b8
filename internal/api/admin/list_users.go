package admin

import (
	"net/http"
	"strconv"
	"time"

	"numeraapi/internal/api"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userRow struct {
	Id               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	EmailVerified    bool      `json:"emailVerified"`
	Ctime            time.Time `json:"ctime"`
	StageIdx         int       `json:"stageIdx"`
	RemainingSeconds int       `json:"remainingSeconds"`
	TimerInitialized bool      `json:"timerInitialized"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	cursor, err := h.MongoDB.Collection("users").Find(ctx,
		bson.M{},
		options.Find().
			SetSort(bson.M{"ctime": -1}).
			SetSkip(int64(page*limit)).
			SetLimit(int64(limit)).
			SetProjection(bson.M{"passHash": 0}),
	)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	defer cursor.Close(ctx)

	var users []schemas.User
	if err := cursor.All(ctx, &users); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// join the page's balances in one query
	ids := make([]bson.ObjectID, len(users))
	for i := range users {
		ids[i] = users[i].Id
	}
	balCursor, err := h.MongoDB.Collection("time_balances").Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"remainingSeconds": 1}),
	)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	defer balCursor.Close(ctx)

	var balances []struct {
		Id               bson.ObjectID `bson:"_id"`
		RemainingSeconds int           `bson:"remainingSeconds"`
	}
	if err := balCursor.All(ctx, &balances); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	remaining := make(map[bson.ObjectID]int, len(balances))
	for _, b := range balances {
		if b.RemainingSeconds < 0 {
			b.RemainingSeconds = 0
		}
		remaining[b.Id] = b.RemainingSeconds
	}

	rows := make([]userRow, len(users))
	for i, u := range users {
		rem, initialized := remaining[u.Id]
		rows[i] = userRow{
			Id:               u.Id.Hex(),
			Email:            u.Email,
			FullName:         u.FullName,
			EmailVerified:    u.EmailVerified,
			Ctime:            u.Ctime,
			StageIdx:         u.Progress.StageIdx,
			RemainingSeconds: rem,
			TimerInitialized: initialized,
		}
	}

	resParams.ResData = &struct {
		Users []userRow `json:"users"`
		Page  int       `json:"page"`
	}{Users: rows, Page: page}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
