package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"haven/pkg/logger"
	"haven/store"

	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// ValidationError is a client mistake reported back verbatim with 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Sugar.Warnf("failed to encode response: %v", err)
	}
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"message": message})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Messages are the client-facing texts for the failures Fail can report.
type Messages struct {
	NotFound string
	Internal string
}

// Fail maps err onto a status: validation 400, store.ErrNotFound 404,
// anything else 500 (logged, generic message).
func Fail(w http.ResponseWriter, r *http.Request, err error, msgs Messages) {
	var v *ValidationError
	switch {
	case errors.As(err, &v):
		RespondError(w, http.StatusBadRequest, v.Message)
	case errors.Is(err, store.ErrNotFound):
		RespondError(w, http.StatusNotFound, msgs.NotFound)
	default:
		logger.Sugar.Errorw(msgs.Internal,
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		RespondError(w, http.StatusInternalServerError, msgs.Internal)
	}
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies, including anything after the object, come back as a
// ValidationError.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return Invalid("request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Invalid("field %q has the wrong type", typeErr.Field)
		}
		var v *ValidationError
		if errors.As(err, &v) {
			return v
		}
		return Invalid("invalid JSON body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Invalid("invalid JSON body")
	}
	return nil
}
