// Package utils provides token helpers.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    `json:"accessToken"`
	Exp   time.Time `json:"expiresAt"`
}

// NewAccessToken signs an HS256 JWT whose subject is the collaboration
// client id.  Tokens are normally issued by the identity provider; this
// helper serves local development and tests.
func NewAccessToken(secret, clientID, role string, ttl time.Duration) (AccessToken, error) {
	if secret == "" || clientID == "" {
		return AccessToken{}, errors.New("secret and client id are required")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  clientID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
