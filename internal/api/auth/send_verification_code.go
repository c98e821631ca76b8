package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"numeraapi/internal/api"
	"numeraapi/pkg/utils"
)

// SendVerificationCode mints a code in redis and queues the email for
// the dispatcher. A still-valid unused code is not replaced; the client
// gets a cooldown response instead.
func (h *Handler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email string `json:"email" validate:"required,email"`
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

	// normalize
	reqData.Email = strings.TrimSpace(strings.ToLower(reqData.Email))

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if _, err := utils.NewVerificationCode(h.RedisCli, ctx, reqData.Email); err != nil {
		if errors.Is(err, utils.ErrUnusedVerificationCode) {
			resParams.ResData = &struct {
				Cooldown bool `json:"cooldown"`
			}{Cooldown: true}
			resParams.Code = http.StatusTooManyRequests
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// queue for the email dispatcher
	if err := h.RedisCli.LPush(ctx, "vemailq", reqData.Email).Err(); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.Code = http.StatusOK
	h.Res(resParams)

}
