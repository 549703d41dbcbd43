package apperrors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTokenNotFound   = errors.New("token record not found")
	ErrSessionKeyTaken = errors.New("session key already taken")

	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrToolNotEnabled   = errors.New("tool not enabled for project")
	ErrInvalidInput     = errors.New("invalid input")

	ErrNoAccount = errors.New("no basecamp account for this user")
)

// TokenExpiredError means no recoverable credential exists for the user.
// The caller must start a fresh authorization flow at ReauthURL.
type TokenExpiredError struct {
	ReauthURL string
	Err       error
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("access token expired and refresh failed, re-authenticate at %s", e.ReauthURL)
}

func (e *TokenExpiredError) Unwrap() error { return e.Err }

// RateLimitedError is returned after rate-limit retries are exhausted.
// RetryAfter carries the computed wait hint for the caller.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// ReadOnlyError is returned when a non-GET request is attempted
// against the read-only gateway. Raised before any network I/O.
type ReadOnlyError struct {
	Method string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("gateway is read-only, blocked method: %s", e.Method)
}

// StatusError carries a non-2xx HTTP status that has no dedicated sentinel.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.Path)
}
