package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"numeraapi/internal/countdown"
	"numeraapi/internal/timeledger"
	"numeraapi/pkg/utils"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Logger    *zap.Logger
	Validate  *validator.Validate
	MongoDB   *mongo.Database
	RedisCli  *redis.Client
	StripeCli *stripe.Client
	Ledger    *timeledger.Ledger
	Gate      *timeledger.Gate
	Watcher   countdown.Watcher
}

type ResParams struct {
	W       http.ResponseWriter
	R       *http.Request
	Code    int
	Err     error
	ReqData any // for logs
	ResData any
}

func (h *Handler) AuthMiddleware(f http.HandlerFunc) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {
		resParams := &ResParams{W: w, R: r}
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
		ctx := context.WithValue(r.Context(), "uid", uid)
		f(w, r.WithContext(ctx))
	}

}

// AdminMiddleware additionally requires the authenticated user to carry
// the admin role. The role comes from the user document, never from the
// request.
func (h *Handler) AdminMiddleware(f http.HandlerFunc) http.HandlerFunc {

	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		resParams := &ResParams{W: w, R: r}
		ctx := r.Context()
		uid := ctx.Value("uid").(bson.ObjectID)

		var role struct {
			Role string `bson:"role"`
		}
		err := h.MongoDB.Collection("users").FindOne(ctx, bson.M{"_id": uid}).Decode(&role)
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
		if role.Role != "admin" {
			resParams.Code = http.StatusForbidden
			h.Res(resParams)
			return
		}
		f(w, r)
	})

}

// CheckTimeBudget runs the access gate for a budget-gated action and
// writes the rejection response itself. Returns true when the action
// may proceed. The two failure shapes are distinguishable: a missing
// balance is a setup problem, an exhausted one is the paywall.
func (h *Handler) CheckTimeBudget(resParams *ResParams, ctx context.Context, uid bson.ObjectID) bool {

	err := h.Gate.Check(ctx, uid)
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, timeledger.ErrNotInitialized):
		resParams.ResData = &struct {
			BalanceNotInitialized bool `json:"balanceNotInitialized"`
		}{BalanceNotInitialized: true}
		resParams.Code = http.StatusConflict
	case errors.Is(err, timeledger.ErrTimeExpired):
		resParams.ResData = &struct {
			TimeExpired bool `json:"timeExpired"`
		}{TimeExpired: true}
		resParams.Code = http.StatusPaymentRequired
	default:
		// store failure: never fail open
		resParams.Code = http.StatusInternalServerError
	}
	resParams.Err = err
	h.Res(resParams)

	return false

}

func (h *Handler) Res(params *ResParams) {

	if params.Err != nil && errors.Is(params.Err, context.Canceled) {
		return
	}

	pc, file, line, ok := runtime.Caller(1)
	var caller string
	if !ok {
		caller = "unknown"
	}
	fn := runtime.FuncForPC(pc)
	caller = fmt.Sprintf("%s:%d (%s)", file, line, fn.Name())

	// handle logging
	if params.Code >= 500 {
		h.Logger.Error("Error at "+caller,
			zap.Error(params.Err),
			zap.Any("request_data", params.ReqData),
		)
	} else if params.Code >= 400 {
		h.Logger.Warn("Warning at "+caller,
			zap.Error(params.Err),
			zap.Any("request_data", params.ReqData),
		)
	}

	render.Status(params.R, params.Code)
	render.JSON(params.W, params.R, params.ResData)

}
