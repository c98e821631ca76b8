package admin

import (
	"errors"
	"net/http"
	"time"

	"numeraapi/internal/api"
	"numeraapi/internal/timeledger"
	"numeraapi/pkg/schemas"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// BalanceHistory returns a user's full adjustment log, the audit trail
// behind every balance change.
func (h *Handler) BalanceHistory(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	resParams := &api.ResParams{W: w, R: r}

	uid, err := bson.ObjectIDFromHex(r.URL.Query().Get("userId"))
	if err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	tb, err := h.Ledger.Read(ctx, uid)
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

	resParams.ResData = &struct {
		RemainingSeconds int                  `json:"remainingSeconds"`
		LastSyncedAt     time.Time            `json:"lastSyncedAt"`
		History          []schemas.Adjustment `json:"history"`
	}{
		RemainingSeconds: tb.RemainingSeconds,
		LastSyncedAt:     tb.LastSyncedAt,
		History:          tb.History,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
