// Package handlers holds the JSON helpers shared by the resource API handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/report-scheduler/pkg/models/api"
	"github.com/de-tools/report-scheduler/pkg/services/resources"
	"github.com/rs/zerolog"
)

type apiError struct {
	status  int
	message string
	err     error
}

func (e *apiError) Error() string {
	return e.err.Error()
}

func (e *apiError) Unwrap() error {
	return e.err
}

func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, resources.ErrInvalid):
		return &apiError{status: http.StatusBadRequest, message: "invalid request", err: err}
	case errors.Is(err, resources.ErrNotFound):
		return &apiError{status: http.StatusNotFound, message: "not found", err: err}
	case errors.Is(err, resources.ErrConflict):
		return &apiError{status: http.StatusConflict, message: "conflict", err: err}
	default:
		return &apiError{status: http.StatusInternalServerError, message: "internal error", err: err}
	}
}

// BadRequest wraps err so WriteError answers 400 with message.
func BadRequest(message string, err error) error {
	return &apiError{status: http.StatusBadRequest, message: message, err: err}
}

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

// WriteError answers with an api.Error whose status follows the kind of err.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)

	event := zerolog.Ctx(r.Context()).Warn()
	if apiErr.status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", apiErr.status).Msg("request failed")

	WriteJSON(w, r, apiErr.status, api.Error{
		Status:  apiErr.status,
		Message: apiErr.message,
		Error:   err.Error(),
	})
}

// DecodeJSON reads the request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return BadRequest("malformed request body", err)
	}
	return nil
}
