package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"haven/pkg/httpx"
	"haven/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	IdentityKey contextKey = "identity"
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// Claims are the token claims the server understands. Only sub is required.
type Claims struct {
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	jwt.RegisteredClaims
}

var errNoSecret = errors.New("server is not configured to validate tokens")

// ParseToken verifies an HS256 token signed with secret and returns its
// bearer.
func ParseToken(tokenString string, secret []byte) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(secret) == 0 {
			return nil, errNoSecret
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("token is not valid")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, errors.New("user id (sub) claim is missing")
	}
	return Identity{
		UserID:          claims.Subject,
		Email:           claims.Email,
		FirstName:       claims.FirstName,
		LastName:        claims.LastName,
		ProfileImageURL: claims.ProfileImageURL,
	}, nil
}

// AuthMiddleware rejects requests without a valid token with 401 and puts
// the caller's identity into the request context otherwise.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	if len(key) == 0 {
		logger.Sugar.Warn("JWT secret is empty; every authenticated request will be rejected")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Browsers cannot set headers on a WebSocket handshake, so the
			// token may arrive in the query string instead.
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}

			if tokenString == "" {
				httpx.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			id, err := ParseToken(tokenString, key)
			if err != nil {
				if errors.Is(err, errNoSecret) {
					logger.Sugar.Error("Rejecting token: JWT secret not configured")
				} else {
					logger.Sugar.Debugf("Invalid token: %v", err)
				}
				httpx.RespondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, IdentityKey, id)
	return context.WithValue(ctx, UserIDKey, id.UserID)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}
