package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,password"`
		FullName string `json:"fullName" validate:"required,maxgraphemes=64"`
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
	reqData.Password = strings.TrimSpace(reqData.Password)
	reqData.FullName = strings.TrimSpace(reqData.FullName)

	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	password := reqData.Password
	reqData.Password = ""
	resParams.ReqData = reqData

	// hash password
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	newUser := &schemas.User{
		Ctime:    time.Now().UTC(),
		Email:    reqData.Email,
		PassHash: string(passHash),
		FullName: reqData.FullName,
	}

	// unique index by email
	res, err := h.MongoDB.Collection("users").InsertOne(ctx, newUser)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			resParams.ResData = &struct {
				EmailConflict bool `json:"emailConflict"`
			}{EmailConflict: true}
			resParams.Code = http.StatusConflict
		} else {
			resParams.Code = http.StatusInternalServerError
		}
		resParams.Err = err
		h.Res(resParams)
		return
	}
	uid := res.InsertedID.(bson.ObjectID)

	// seed the time budget; idempotent, so a retried registration can
	// never reset an existing balance
	if err := h.Ledger.CreateIfAbsent(ctx, uid, config.INITIAL_GRANT_SECONDS); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.Code = http.StatusOK
	h.Res(resParams)

}
