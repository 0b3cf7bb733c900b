package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken signs an HS256 token for id. A zero ttl means no expiry.
func IssueToken(id Identity, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errNoSecret
	}
	if id.UserID == "" {
		return "", errors.New("user id is required")
	}

	now := time.Now()
	claims := Claims{
		Email:           id.Email,
		FirstName:       id.FirstName,
		LastName:        id.LastName,
		ProfileImageURL: id.ProfileImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  id.UserID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
