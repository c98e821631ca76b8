package course

import (
	"net/http"
	"slices"

	"numeraapi/internal/api"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type stageQuestionView struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
}

type stageView struct {
	Idx       int                 `json:"idx"`
	Title     string              `json:"title"`
	VideoUrl  string              `json:"videoUrl,omitempty"`
	Questions []stageQuestionView `json:"questions,omitempty"`
	Completed bool                `json:"completed"`
	Locked    bool                `json:"locked"`
}

// GetStages lists the course in order. Answers never leave the server
// and locked stages expose only their title.
func (h *Handler) GetStages(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var user schemas.User
	if err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	cursor, err := h.MongoDB.Collection("stages").Find(ctx,
		bson.M{},
		options.Find().SetSort(bson.M{"idx": 1}),
	)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	defer cursor.Close(ctx)

	var stages []schemas.Stage
	if err := cursor.All(ctx, &stages); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	views := make([]stageView, len(stages))
	for i, stage := range stages {
		view := stageView{
			Idx:       stage.Idx,
			Title:     stage.Title,
			Completed: slices.Contains(user.Progress.CompletedStages, stage.Idx),
			Locked:    stage.Idx > user.Progress.StageIdx,
		}
		if !view.Locked {
			view.VideoUrl = stage.VideoUrl
			view.Questions = make([]stageQuestionView, len(stage.Questions))
			for j, q := range stage.Questions {
				view.Questions[j] = stageQuestionView{Prompt: q.Prompt, Choices: q.Choices}
			}
		}
		views[i] = view
	}

	resParams.ResData = &struct {
		Stages []stageView `json:"stages"`
	}{Stages: views}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
