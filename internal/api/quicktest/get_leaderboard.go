package quicktest

import (
	"encoding/json"
	"errors"
	"net/http"

	"numeraapi/internal/api"
	"numeraapi/pkg/schemas"

	"github.com/redis/go-redis/v9"
)

// GetLeaderboard serves the cron-refreshed cached leaderboard.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {

	resParams := &api.ResParams{W: w, R: r}

	lb, err := h.RedisCli.Get(r.Context(), "quicktest:top").Result()
	var leaderboard []*schemas.LeaderboardEntry
	if errors.Is(err, redis.Nil) { // no leaderboard yet
		resParams.ResData = leaderboard
		resParams.Code = http.StatusOK
		h.Res(resParams)
		return
	} else if err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	if err := json.Unmarshal([]byte(lb), &leaderboard); err != nil {
		resParams.Code = http.StatusInternalServerError
		resParams.Err = err
		h.Res(resParams)
		return
	}

	resParams.ResData = leaderboard
	resParams.Code = http.StatusOK
	h.Res(resParams)

}
