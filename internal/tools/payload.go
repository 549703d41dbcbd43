package tools

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/campgate/internal/apperrors"
)

type Code string

const (
	CodeTokenExpired     Code = "TOKEN_EXPIRED"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeToolNotEnabled   Code = "TOOL_NOT_ENABLED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeInvalidInput     Code = "INVALID_INPUT"
)

// ErrorPayload is the structured failure shape handed to the caller.
// The machine readable code and retryable flag let an automated caller
// decide to retry, escalate or prompt re-authorization.
type ErrorPayload struct {
	ErrorCode Code   `json:"error_code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Classify maps any pipeline error to its payload. Callers never see a
// bare error.
func Classify(err error) ErrorPayload {
	var tokenExpired *apperrors.TokenExpiredError
	var rateLimited *apperrors.RateLimitedError
	var readOnly *apperrors.ReadOnlyError
	var validation validator.ValidationErrors

	switch {
	case errors.As(err, &tokenExpired):
		return ErrorPayload{CodeTokenExpired, tokenExpired.Error(), false}
	case errors.As(err, &rateLimited):
		return ErrorPayload{CodeRateLimited, rateLimited.Error(), true}
	case errors.Is(err, apperrors.ErrToolNotEnabled):
		return ErrorPayload{CodeToolNotEnabled, err.Error(), false}
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return ErrorPayload{CodePermissionDenied, err.Error(), false}
	case errors.Is(err, apperrors.ErrInvalidInput), errors.As(err, &readOnly), errors.As(err, &validation):
		return ErrorPayload{CodeInvalidInput, err.Error(), false}
	default:
		// Remote 404s and anything unclassified: the resource cannot be
		// served as asked for
		return ErrorPayload{CodeNotFound, err.Error(), false}
	}
}
