package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"numeraapi/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestAuthTokenRoundTrip(t *testing.T) {
	config.ENV.JWT_SECRET = "test-secret"

	uid := bson.NewObjectID()
	signed, err := CreateNewAuthToken(uid).Sign()
	require.NoError(t, err)
	require.Contains(t, signed, "Bearer ")

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", signed)

	token, err := ValidateAuthToken(r)
	require.NoError(t, err)

	got, err := token.GetUidObjectId()
	require.NoError(t, err)
	require.Equal(t, uid, got)
}

func TestValidateAuthTokenRejections(t *testing.T) {
	config.ENV.JWT_SECRET = "test-secret"

	// missing header
	r := httptest.NewRequest("GET", "/", nil)
	_, err := ValidateAuthToken(r)
	require.Error(t, err)

	// malformed header
	r.Header.Set("Authorization", "garbage")
	_, err = ValidateAuthToken(r)
	require.Error(t, err)

	// signed under a different secret
	config.ENV.JWT_SECRET = "other-secret"
	signed, err := CreateNewAuthToken(bson.NewObjectID()).Sign()
	require.NoError(t, err)
	config.ENV.JWT_SECRET = "test-secret"
	r.Header.Set("Authorization", signed)
	_, err = ValidateAuthToken(r)
	require.Error(t, err)

	// expired claims
	expired := CreateNewAuthToken(bson.NewObjectID())
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().UTC().Add(-time.Hour))
	signed, err = expired.Sign()
	require.NoError(t, err)
	r.Header.Set("Authorization", signed)
	_, err = ValidateAuthToken(r)
	require.Error(t, err)
}

func TestAuthTokenRefreshWindow(t *testing.T) {
	config.ENV.JWT_SECRET = "test-secret"

	// a fresh token is a month out; refresh is a no-op
	token := CreateNewAuthToken(bson.NewObjectID())
	before := token.ExpiresAt.Time
	token.Refresh()
	require.Equal(t, before, token.ExpiresAt.Time)

	// inside the one-week window the claims rotate
	token.ExpiresAt = jwt.NewNumericDate(time.Now().UTC().Add(48 * time.Hour))
	token.Refresh()
	require.True(t, token.ExpiresAt.Time.After(time.Now().UTC().AddDate(0, 0, 20)),
		"refreshed expiry should be pushed out a month")
}
