package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"haven/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msgs = Messages{NotFound: "Note not found", Internal: "Failed to fetch note"}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFailMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", Invalid("title is required"), http.StatusBadRequest, "title is required"},
		{"wrapped validation", fmt.Errorf("create: %w", Invalid("bad")), http.StatusBadRequest, "bad"},
		{"not found", fmt.Errorf("get note x: %w", store.ErrNotFound), http.StatusNotFound, "Note not found"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Failed to fetch note"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/notes/x", nil)
			Fail(rec, req, tc.err, msgs)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, body(t, rec)["message"])
		})
	}
}

func TestInternalErrorsDoNotLeakDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn password=hunter2"), msgs)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	var p payload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"hi"}`))
	require.NoError(t, DecodeJSON(req, &p))
	assert.Equal(t, "hi", p.Title)

	for _, raw := range []string{"", "{", `{"title": 5}`, "[]"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		err := DecodeJSON(req, &p)
		assert.True(t, IsValidation(err), "%q should be a validation error, got %v", raw, err)
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	for _, raw := range []string{
		`{"title":"a"} garbage`,
		`{"title":"a"}{"title":"b"}`,
		`{"title":"a"} []`,
	} {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		err := DecodeJSON(req, &p)
		require.Error(t, err, raw)
		assert.True(t, IsValidation(err), raw)
		assert.Equal(t, "invalid JSON body", err.Error())
	}

	// Surrounding whitespace is fine.
	var p payload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("  {\"title\":\"a\"}\n\t "))
	require.NoError(t, DecodeJSON(req, &p))
	assert.Equal(t, "a", p.Title)
}
