package course

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SubmitQuiz grades the quiz of the learner's current stage and, on a
// pass, unlocks the next one. Submitting answers is a budget-gated
// action: the gate reads the authoritative balance, never anything the
// client sent.
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		StageIdx *int  `json:"stageIdx" validate:"required,min=0"`
		Answers  []int `json:"answers" validate:"required,min=1,max=50"`
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
	stageIdx := *reqData.StageIdx

	if !h.CheckTimeBudget(resParams, ctx, uid) {
		return
	}

	var user schemas.User
	if err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// only the current frontier stage is submittable
	if stageIdx != user.Progress.StageIdx {
		resParams.ResData = &struct {
			StageLocked bool `json:"stageLocked"`
		}{StageLocked: true}
		resParams.Code = http.StatusConflict
		h.Res(resParams)
		return
	}

	var stage schemas.Stage
	err := h.MongoDB.Collection("stages").FindOne(ctx, bson.M{"idx": stageIdx}).Decode(&stage)
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

	if len(reqData.Answers) != len(stage.Questions) {
		resParams.Code = http.StatusBadRequest
		resParams.Err = errors.New("answer count does not match question count")
		h.Res(resParams)
		return
	}

	scorePercent, results := gradeQuiz(stage.Questions, reqData.Answers)
	passed := scorePercent >= config.QUIZ_PASS_PERCENT

	if passed {
		update := bson.M{
			"$set":      bson.M{"progress.stageIdx": stageIdx + 1},
			"$addToSet": bson.M{"progress.completedStages": stageIdx},
		}

		// course complete once the last stage is passed
		stageCount, err := h.MongoDB.Collection("stages").CountDocuments(ctx, bson.M{})
		if err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
		if int64(stageIdx+1) >= stageCount {
			update["$set"].(bson.M)["progress.completedAt"] = time.Now().UTC()
		}

		// frontier filter makes a duplicate submission a no-op
		if _, err := h.MongoDB.Collection("users").UpdateOne(ctx, bson.M{
			"_id":               uid,
			"progress.stageIdx": stageIdx,
		}, update); err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
	}

	resParams.ResData = &struct {
		Passed       bool   `json:"passed"`
		ScorePercent int    `json:"scorePercent"`
		Results      []bool `json:"results"`
	}{
		Passed:       passed,
		ScorePercent: scorePercent,
		Results:      results,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}

// gradeQuiz scores answers against the stage's questions. The caller
// guarantees both slices have the same length.
func gradeQuiz(questions []schemas.StageQuestion, answers []int) (scorePercent int, results []bool) {

	correct := 0
	results = make([]bool, len(questions))
	for i, q := range questions {
		if answers[i] == q.AnswerIdx {
			correct++
			results[i] = true
		}
	}

	return correct * 100 / len(questions), results

}
