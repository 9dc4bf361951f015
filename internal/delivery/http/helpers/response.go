package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"academicevents/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeForbidden       = "forbidden"
	ErrCodeNotFound        = "not_found"
	ErrCodeConflict        = "conflict"
	ErrCodeTooManyRequests = "too_many_requests"
	ErrCodeInternalError   = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// A 409 for a repeated check-in or check-out carries both.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSONErrorWithData(w, statusCode, code, message, nil)
}

// WriteJSONErrorWithData is WriteJSONError with a data payload.
func WriteJSONErrorWithData(w http.ResponseWriter, statusCode int, code, message string, data any) {
	writeJSON(w, statusCode, APIResponse{
		Data:  data,
		Error: &APIError{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorStatus maps a domain error kind to its HTTP status and error code.
// ok is false for errors outside the known kinds.
func ErrorStatus(err error) (status int, code string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, true
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrCodeConflict, true
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest, true
	}
	return http.StatusInternalServerError, ErrCodeInternalError, false
}

// WriteServiceError writes err as an API error. Unclassified errors are
// logged and answered with a generic 500.
func WriteServiceError(ctx context.Context, w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code, ok := ErrorStatus(err)
	if !ok {
		logger.ErrorContext(ctx, "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}
