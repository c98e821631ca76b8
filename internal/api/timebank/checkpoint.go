package timebank

import (
	"encoding/json"
	"errors"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/internal/timeledger"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Checkpoint lets a client-run countdown push its local value. The
// subject is always the authenticated user; the value only feeds the
// display path, enforcement stays with the access gate.
func (h *Handler) Checkpoint(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Seconds *int `json:"seconds" validate:"required,min=0"`
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

	var err error
	if *reqData.Seconds == 0 {
		err = h.Ledger.Expire(ctx, uid)
	} else {
		err = h.Ledger.Checkpoint(ctx, uid, *reqData.Seconds)
	}
	if err != nil {
		if errors.Is(err, timeledger.ErrNotInitialized) {
			resParams.ResData = &struct {
				BalanceNotInitialized bool `json:"balanceNotInitialized"`
			}{BalanceNotInitialized: true}
			resParams.Code = http.StatusConflict
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.Code = http.StatusOK
	h.Res(resParams)

}
