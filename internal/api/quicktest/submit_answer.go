package quicktest

import (
	"encoding/json"
	"errors"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SubmitAnswer grades one quick-test question and credits its points to
// the user's leaderboard score. Budget-gated like every answer
// submission.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		QuestionId string `json:"questionId" validate:"required,len=24,hexadecimal"`
		AnswerIdx  *int   `json:"answerIdx" validate:"required,min=0,max=15"`
	}

	// validate request body
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	resParams.ReqData = reqData
	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if !h.CheckTimeBudget(resParams, ctx, uid) {
		return
	}

	questionId, err := bson.ObjectIDFromHex(reqData.QuestionId)
	if err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	var question schemas.QuickTestQuestion
	err = h.MongoDB.Collection("quicktest_questions").FindOne(ctx, bson.M{"_id": questionId}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	correct := *reqData.AnswerIdx == question.AnswerIdx

	score := 0.0
	if correct {
		score, err = h.RedisCli.ZIncrBy(ctx, "quicktest:scores", float64(question.Points), uid.Hex()).Result()
	} else {
		score, err = h.RedisCli.ZScore(ctx, "quicktest:scores", uid.Hex()).Result()
		if errors.Is(err, redis.Nil) { // no points yet
			score, err = 0, nil
		}
	}
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Correct bool `json:"correct"`
		Score   int  `json:"score"`
		Level   int  `json:"level"`
	}{
		Correct: correct,
		Score:   int(score),
		Level:   int(score)/config.LEVEL_STEP_POINTS + 1,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
