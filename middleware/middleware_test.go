package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Write([]byte(UserID(r.Context()) + "|" + id.Email))
	})
}

func TestAuthMiddleware(t *testing.T) {
	valid, err := IssueToken(Identity{UserID: "user-1", Email: "a@example.com"}, secret, time.Hour)
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}).SignedString(secret)
	require.NoError(t, err)
	wrongKey, err := IssueToken(Identity{UserID: "user-1"}, []byte("other"), time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "x@example.com"}).SignedString(secret)
	require.NoError(t, err)

	handler := AuthMiddleware(string(secret))(echoUser())

	tests := []struct {
		name     string
		target   string
		header   string
		wantCode int
		wantBody string
	}{
		{"bearer header", "/api/notes", "Bearer " + valid, http.StatusOK, "user-1|a@example.com"},
		{"query token", "/ws?token=" + valid, "", http.StatusOK, "user-1|a@example.com"},
		{"missing token", "/api/notes", "", http.StatusUnauthorized, ""},
		{"garbage token", "/api/notes", "Bearer not-a-jwt", http.StatusUnauthorized, ""},
		{"expired token", "/api/notes", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong key", "/api/notes", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"missing sub", "/api/notes", "Bearer " + noSub, http.StatusUnauthorized, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantCode == http.StatusOK {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareWithoutSecretRejects(t *testing.T) {
	token, err := IssueToken(Identity{UserID: "user-1"}, secret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthMiddleware("")(echoUser()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseTokenCarriesProfileClaims(t *testing.T) {
	in := Identity{UserID: "u", Email: "e@x", FirstName: "Ada", LastName: "L", ProfileImageURL: "https://img"}
	token, err := IssueToken(in, secret, 0)
	require.NoError(t, err)

	out, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestIssueTokenValidation(t *testing.T) {
	_, err := IssueToken(Identity{UserID: "u"}, nil, time.Hour)
	assert.Error(t, err)
	_, err = IssueToken(Identity{}, secret, time.Hour)
	assert.Error(t, err)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		CORSMiddleware([]string{"http://localhost:5173"})(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		CORSMiddleware([]string{"http://localhost:5173"})(next).ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
		req.Header.Set("Origin", "https://any.example")
		req.Header.Set("Access-Control-Request-Method", "PATCH")
		rec := httptest.NewRecorder()
		CORSMiddleware([]string{"*"})(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notes", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
