package payment

import (
	"context"
	"testing"

	"numeraapi/internal/api"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &Handler{Handler: &api.Handler{RedisCli: cli}}
}

func TestClaimStripeEventAtMostOnce(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	fresh, err := h.claimStripeEvent(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, fresh)

	// redelivery of the same event must not credit again
	fresh, err = h.claimStripeEvent(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, fresh)

	// a different event is unaffected
	fresh, err = h.claimStripeEvent(ctx, "evt_2")
	require.NoError(t, err)
	require.True(t, fresh)
}

func TestReleaseStripeEventAllowsRetry(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	fresh, err := h.claimStripeEvent(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, fresh)

	// crediting failed; the claim is released so the retry can land
	h.releaseStripeEvent(ctx, "evt_1")

	fresh, err = h.claimStripeEvent(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, fresh)
}
