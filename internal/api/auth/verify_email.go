package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"numeraapi/internal/api"
	"numeraapi/pkg/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email     string `json:"email" validate:"required,email"`
		VerifCode string `json:"verifCode" validate:"required,len=6"`
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

	ok, err := utils.ValidateVerificationCode(h.RedisCli, ctx, reqData.Email, reqData.VerifCode)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if !ok {
		resParams.ResData = &struct {
			InvalidCode bool `json:"invalidCode"`
		}{InvalidCode: true}
		resParams.Code = http.StatusUnauthorized
		h.Res(resParams)
		return
	}

	if _, err := h.MongoDB.Collection("users").UpdateOne(ctx,
		bson.M{"email": reqData.Email},
		bson.M{"$set": bson.M{"emailVerified": true}},
	); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.Code = http.StatusOK
	h.Res(resParams)

}
