package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/noteghar/noteghar/internal/ctxkeys"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/policy"
	"github.com/noteghar/noteghar/internal/repository"
	"github.com/noteghar/noteghar/internal/service"
	"github.com/noteghar/noteghar/internal/validation"
)

const maxJSONBody = 1 << 20

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Render writes v as JSON with the given status.
func Render(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("render failed", "error", err)
	}
}

// RenderError maps domain errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a bare 500.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		Render(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: vErr.FieldMap()})
	case errors.Is(err, policy.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		Render(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, policy.ErrPermissionDenied):
		Render(w, http.StatusForbidden, errorBody{Error: "permission denied"})
	case errors.Is(err, repository.ErrNotFound):
		Render(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, repository.ErrConflict):
		Render(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		Render(w, http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return validation.NewValidationError(err, validation.FieldError{Field: "body", Error: fmt.Sprintf("invalid JSON: %v", err)})
	}
	return nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, validation.Field(key, "must be a non-negative integer")
	}
	return n, nil
}

// NotFound is the fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Render(w, http.StatusNotFound, errorBody{Error: "route not found"})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	Render(w, http.StatusOK, map[string]string{"status": "ok"})
}
