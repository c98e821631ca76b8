package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"
	"numeraapi/pkg/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) PasswordLogin(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
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

	// normalize
	reqData.Email = strings.TrimSpace(strings.ToLower(reqData.Email))

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	password := reqData.Password
	reqData.Password = ""
	resParams.ReqData = reqData

	var user schemas.User
	err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"email": reqData.Email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			resParams.Code = http.StatusUnauthorized
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		resParams.Code = http.StatusUnauthorized
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// registration logic is safe to re-run: a missing balance gets its
	// initial grant, an existing one is untouched
	if err := h.Ledger.CreateIfAbsent(ctx, user.Id, config.INITIAL_GRANT_SECONDS); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	token, err := utils.CreateNewAuthToken(user.Id).Sign()
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		Token         string `json:"token"`
		EmailVerified bool   `json:"emailVerified"`
	}{
		Token:         token,
		EmailVerified: user.EmailVerified,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
