package timebank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"

	"github.com/stripe/stripe-go/v82"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// CreateCheckout starts a stripe checkout for one time pack. The pack's
// second count travels in the session metadata; the webhook is the only
// place the credit is applied.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	uidStr := uid.Hex()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		PackId string `json:"packId" validate:"required"`
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

	pack := config.TimePackById(reqData.PackId)
	if pack == nil {
		resParams.ResData = &struct {
			UnknownPack bool `json:"unknownPack"`
		}{UnknownPack: true}
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	// one session creation at a time per user
	mutexKey := "checkoutmutex:" + uidStr
	gotMutex, err := h.RedisCli.SetNX(ctx, mutexKey, 1, time.Minute).Result()
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if !gotMutex {
		resParams.Code = http.StatusTooManyRequests
		h.Res(resParams)
		return
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.RedisCli.Del(cleanupCtx, mutexKey).Err(); err != nil {
			h.Logger.Warn("checkout mutex release failed", zap.Error(err))
		}
	}()

	var user schemas.User
	userColl := h.MongoDB.Collection("users")
	if err := userColl.FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	// create stripe customer for user if needed
	stripeCustomerId := user.StripeCustomer
	if stripeCustomerId == "" {
		cus, err := h.StripeCli.V1Customers.Create(ctx, &stripe.CustomerCreateParams{
			Email: stripe.String(user.Email),
		})
		if err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
		stripeCustomerId = cus.ID

		if _, err := userColl.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
			"$set": bson.M{"stripeCustomer": cus.ID},
		}); err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
	}

	metadata := map[string]string{
		"type":    "time_pack",
		"uid":     uidStr,
		"seconds": fmt.Sprintf("%d", pack.Seconds),
	}

	checkoutParams := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(config.ORIGIN + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(config.ORIGIN + "/checkout/cancel"),
		Customer:          stripe.String(stripeCustomerId),
		ClientReferenceID: stripe.String(uidStr),
		ExpiresAt:         stripe.Int64(time.Now().Add(config.CHECKOUT_SESSION_DURATION).Unix()),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(pack.PriceId),
			Quantity: stripe.Int64(1),
		}},
		Metadata: metadata,
	}
	checkoutSession, err := h.StripeCli.V1CheckoutSessions.Create(ctx, checkoutParams)
	if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = &struct {
		StripeSession string `json:"stripeSession"`
	}{StripeSession: checkoutSession.ID}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
