package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"numeraapi/internal/api"
	"numeraapi/pkg/config"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	ctx := context.Background()
	resParams := &api.ResParams{W: w, R: r}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		resParams.Code = http.StatusBadRequest
		h.Res(resParams)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), config.ENV.STRIPE_WEBHOOK_SECRET)
	if err != nil {
		resParams.Code = http.StatusUnauthorized
		resParams.Err = err
		h.Res(resParams)
		return
	}

	switch event.Type {

	case stripe.EventTypeCheckoutSessionCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			resParams.Code = http.StatusBadRequest
			resParams.Err = err
			h.Res(resParams)
			return
		}
		if cs.Metadata["type"] != "time_pack" {
			break
		}

		// stripe redelivers; the balance must be credited at most once
		// per event
		fresh, err := h.claimStripeEvent(ctx, event.ID)
		if err != nil {
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}
		if !fresh {
			break
		}

		if err := h.creditTimePack(ctx, &cs); err != nil {
			// allow stripe to retry the delivery
			h.releaseStripeEvent(ctx, event.ID)
			resParams.Code = http.StatusInternalServerError
			resParams.Err = err
			h.Res(resParams)
			return
		}

	}

	resParams.Code = http.StatusOK
	h.Res(resParams)

}

// claimStripeEvent marks an event as processed. Returns false when a
// previous delivery already claimed it.
func (h *Handler) claimStripeEvent(ctx context.Context, eventId string) (bool, error) {
	return h.RedisCli.SetNX(ctx, "stripeevt:"+eventId, 1, 24*time.Hour).Result()
}

// releaseStripeEvent frees a claim whose processing failed so the next
// delivery can credit the purchase.
func (h *Handler) releaseStripeEvent(ctx context.Context, eventId string) {
	h.RedisCli.Del(ctx, "stripeevt:"+eventId)
}

func (h *Handler) creditTimePack(ctx context.Context, cs *stripe.CheckoutSession) error {

	uidStr, ok := cs.Metadata["uid"]
	if !ok {
		return errors.New("uid field missing from checkout session metadata")
	}
	uid, err := bson.ObjectIDFromHex(uidStr)
	if err != nil {
		return err
	}

	secondsStr, ok := cs.Metadata["seconds"]
	if !ok {
		return errors.New("seconds field missing from checkout session metadata")
	}
	seconds, err := strconv.Atoi(secondsStr)
	if err != nil {
		return err
	}

	_, err = h.Ledger.CreditPurchase(ctx, uid, seconds, cs.ID)
	return err

}
