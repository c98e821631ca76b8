package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// TopUp credits a user's time budget. The adjustment is tagged with the
// authenticated admin's identity from the request context, not with
// anything the client supplied. The credit is an atomic add, so
// concurrent top-ups and countdown checkpoints never lose it.
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	actorId := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		UserId  string `json:"userId" validate:"required,len=24,hexadecimal"`
		Seconds *int   `json:"seconds" validate:"required,min=1,max=86400"`
		Reason  string `json:"reason" validate:"required,maxgraphemes=200"`
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
	if *reqData.Seconds > config.MAX_TOPUP_SECONDS {
		resParams.Code = http.StatusBadRequest
		resParams.Err = errors.New("top-up exceeds the per-operation limit")
		h.Res(resParams)
		return
	}

	uid, err := bson.ObjectIDFromHex(reqData.UserId)
	if err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// the ledger would happily seed a balance for any id; only credit
	// real users
	if err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"_id": uid}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			resParams.Code = http.StatusNotFound
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	newTotal, err := h.Ledger.AdminTopUp(ctx, uid, *reqData.Seconds, actorId, reqData.Reason)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		RemainingSeconds int    `json:"remainingSeconds"`
		Clock            string `json:"clock"`
	}{
		RemainingSeconds: newTotal,
		Clock:            utils.FormatClock(newTotal),
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
