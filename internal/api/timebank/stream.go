package timebank

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/internal/countdown"
	"numeraapi/internal/timeledger"
	"numeraapi/pkg/utils"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// Stream is the live timer session: an SSE connection that runs one
// countdown engine for its lifetime. The engine seeds from the
// authoritative balance, emits a tick event per second, checkpoints on
// its own cadence, and picks up concurrent top-ups through the change
// stream watcher. Closing the connection tears the engine down.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	uid := ctx.Value("uid").(bson.ObjectID)
	resParams := &api.ResParams{W: w, R: r}

	flusher, ok := w.(http.Flusher)
	if !ok {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = errors.New("response writer does not support streaming")
		h.Res(resParams)
		return
	}

	// resolve the seed up front so a missing balance is a plain JSON
	// rejection, not a broken stream
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

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticks := make(chan int, 4)
	expired := make(chan struct{}, 1)

	cd := countdown.New(countdown.Config{
		UserId:  uid,
		Ledger:  h.Ledger,
		Watcher: h.Watcher,
		Logger:  h.Logger,
		OnTick: func(rem int) {
			select {
			case ticks <- rem:
			default: // a slow consumer just skips a frame
			}
		},
		OnExpire: func() {
			select {
			case expired <- struct{}{}:
			default:
			}
		},
	})

	errc := make(chan error, 1)
	go func() { errc <- cd.Run(ctx) }()

	writeTick := func(rem int) {
		fmt.Fprintf(w, "event: tick\ndata: {\"remainingSeconds\":%d,\"clock\":%q}\n\n", rem, utils.FormatClock(rem))
		flusher.Flush()
	}
	writeTick(tb.RemainingSeconds)

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errc:
			if err != nil && !errors.Is(err, context.Canceled) {
				h.Logger.Error("countdown session ended", zap.Error(err))
			}
			return
		case rem := <-ticks:
			writeTick(rem)
		case <-expired:
			// paywall prompt; the stream stays open so an admin top-up
			// can revive the session in place
			fmt.Fprintf(w, "event: expired\ndata: {\"timeExpired\":true}\n\n")
			flusher.Flush()
		}
	}

}
