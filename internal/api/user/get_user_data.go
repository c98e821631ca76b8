package user

import (
	"errors"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/internal/timeledger"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"
	"numeraapi/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (h *Handler) GetUserData(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}
	ctx := r.Context()

	authToken, err := utils.ValidateAuthToken(r)
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusUnauthorized
		h.Res(resParams)
		return
	}

	uid, err := authToken.GetUidObjectId()
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	// refresh token if expiring soon
	authToken.Refresh()
	token, err := authToken.Sign()
	if err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	var user schemas.User
	if err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}

	// time budget; a missing balance is reported, not invented
	remaining := 0
	timerInitialized := true
	if tb, err := h.Ledger.Read(ctx, uid); err != nil {
		if !errors.Is(err, timeledger.ErrNotInitialized) {
			resParams.Err = err
			resParams.Code = http.StatusInternalServerError
			h.Res(resParams)
			return
		}
		timerInitialized = false
	} else {
		remaining = tb.RemainingSeconds
	}

	// quick test score
	score, err := h.RedisCli.ZScore(ctx, "quicktest:scores", uid.Hex()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		resParams.Err = err
		resParams.Code = http.StatusInternalServerError
		h.Res(resParams)
		return
	}
	level := int(score)/config.LEVEL_STEP_POINTS + 1

	resParams.ResData = &struct {
		Token            string           `json:"token"`
		Email            string           `json:"email"`
		EmailVerified    bool             `json:"emailVerified"`
		FullName         string           `json:"fullName"`
		Progress         schemas.Progress `json:"progress"`
		TimerInitialized bool             `json:"timerInitialized"`
		RemainingSeconds int              `json:"remainingSeconds"`
		Clock            string           `json:"clock"`
		QuickTestScore   int              `json:"quickTestScore"`
		QuickTestLevel   int              `json:"quickTestLevel"`
	}{
		Token:            token,
		Email:            user.Email,
		EmailVerified:    user.EmailVerified,
		FullName:         user.FullName,
		Progress:         user.Progress,
		TimerInitialized: timerInitialized,
		RemainingSeconds: remaining,
		Clock:            utils.FormatClock(remaining),
		QuickTestScore:   int(score),
		QuickTestLevel:   level,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
