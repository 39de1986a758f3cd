package model

import "errors"

// Common errors used across the application
var (
	// Validation errors: the action was understood but is not allowed now.
	// Surfaced to the acting client; state is unchanged.
	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidIdentity = errors.New("identity must not be empty")
	ErrInvalidPayload  = errors.New("invalid event payload")
	ErrUnknownEvent    = errors.New("unknown event")

	// Not-found errors: nothing exists to operate on. Silently ignored.
	ErrPlayerNotFound  = errors.New("player not found")
	ErrSessionNotFound = errors.New("session not found")

	// State errors: the session exists but is no longer playable. Silently ignored.
	ErrSessionCompleted = errors.New("session is already completed")
	ErrAlreadyInSession = errors.New("player is already in an active session")
	ErrDuplicateSession = errors.New("session id already in use")
)

// IsValidationError reports whether err should be surfaced to the client
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrInvalidIdentity) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrUnknownEvent)
}

// IsNotFoundError reports whether err refers to a missing player or session
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrSessionNotFound)
}

// IsStateError reports whether err refers to a session in the wrong state
func IsStateError(err error) bool {
	return errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrAlreadyInSession) ||
		errors.Is(err, ErrDuplicateSession)
}
