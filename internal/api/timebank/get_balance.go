package timebank

import (
	"errors"
	"net/http"
	"time"

	"numeraapi/internal/api"
	"numeraapi/internal/timeledger"
	"numeraapi/pkg/config"
	"numeraapi/pkg/schemas"
	"numeraapi/pkg/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {

	ctx := r.Context()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

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

	// most recent adjustments only
	history := tb.History
	if len(history) > config.HISTORY_TAIL_LIMIT {
		history = history[len(history)-config.HISTORY_TAIL_LIMIT:]
	}

	resParams.ResData = &struct {
		RemainingSeconds int                  `json:"remainingSeconds"`
		Clock            string               `json:"clock"`
		LastSyncedAt     time.Time            `json:"lastSyncedAt"`
		History          []schemas.Adjustment `json:"history"`
	}{
		RemainingSeconds: tb.RemainingSeconds,
		Clock:            utils.FormatClock(tb.RemainingSeconds),
		LastSyncedAt:     tb.LastSyncedAt,
		History:          history,
	}
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
