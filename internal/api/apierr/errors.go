package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/battlearena/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidIdentity    = "INVALID_IDENTITY"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeSessionCompleted   = "SESSION_COMPLETED"
	CodeAlreadyInSession   = "ALREADY_IN_SESSION"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrInvalidIdentity):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidIdentity, "Identity must not be empty"}}
	case errors.Is(err, model.ErrNotYourTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, model.NotYourTurnMessage}}
	case errors.Is(err, model.ErrSessionCompleted):
		return &httpError{http.StatusConflict, APIError{CodeSessionCompleted, "Session is already completed"}}
	case errors.Is(err, model.ErrAlreadyInSession):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInSession, "Player is already in a session"}}
	case model.IsValidationError(err):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewStorageUnavailableError reports an unreachable results store
func NewStorageUnavailableError() error {
	return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageUnavailable, "Results storage unavailable"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
