package utils

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"numeraapi/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type AuthToken struct {
	Uid string `json:"uid"`
	jwt.RegisteredClaims
}

func CreateNewAuthToken(uid bson.ObjectID) *AuthToken {

	token := AuthToken{Uid: uid.Hex()}
	token.refreshToken()
	return &token

}

func ValidateAuthToken(r *http.Request) (*AuthToken, error) {

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.New("missing token")
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return nil, errors.New("invalid token format")
	}
	tokenRaw := parts[1]

	var authToken AuthToken
	token, err := jwt.ParseWithClaims(tokenRaw, &authToken, func(token *jwt.Token) (any, error) {
		return []byte(config.ENV.JWT_SECRET), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if time.Now().UTC().After(authToken.ExpiresAt.Time) {
		return nil, errors.New("token expired")
	}

	return &authToken, nil

}

func (authToken *AuthToken) Sign() (string, error) {

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authToken)
	key := []byte(config.ENV.JWT_SECRET)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	return "Bearer " + signed, nil

}

func (authToken *AuthToken) GetUidObjectId() (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(authToken.Uid)
}

// Refresh rotates the claims when the token expires within a week.
func (authToken *AuthToken) Refresh() {

	timeTillExpire := authToken.ExpiresAt.Sub(time.Now().UTC())
	if timeTillExpire <= time.Hour*24*7 {
		authToken.refreshToken()
	}

}

func (authToken *AuthToken) refreshToken() {

	now := time.Now().UTC()
	authToken.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.AddDate(0, 1, 0)), // 1 month
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "numeraapi",
	}

}
