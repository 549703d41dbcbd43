package tools

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/campgate/internal/apperrors"
)

func Test_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantCode      Code
		wantRetryable bool
	}{
		{
			name:     "token expired",
			err:      &apperrors.TokenExpiredError{ReauthURL: "/oauth/start", Err: errors.New("invalid_grant")},
			wantCode: CodeTokenExpired,
		},
		{
			name:          "rate limited is retryable",
			err:           &apperrors.RateLimitedError{RetryAfter: 8 * time.Second},
			wantCode:      CodeRateLimited,
			wantRetryable: true,
		},
		{
			name:     "tool not enabled",
			err:      fmt.Errorf("chat in project 1: %w", apperrors.ErrToolNotEnabled),
			wantCode: CodeToolNotEnabled,
		},
		{
			name:     "permission denied",
			err:      fmt.Errorf("projects/1.json: %w", apperrors.ErrPermissionDenied),
			wantCode: CodePermissionDenied,
		},
		{
			name:     "invalid input",
			err:      fmt.Errorf("%w: bad json", apperrors.ErrInvalidInput),
			wantCode: CodeInvalidInput,
		},
		{
			name:     "write attempt",
			err:      &apperrors.ReadOnlyError{Method: "POST"},
			wantCode: CodeInvalidInput,
		},
		{
			name:     "remote not found",
			err:      fmt.Errorf("projects/1.json: %w", apperrors.ErrNotFound),
			wantCode: CodeNotFound,
		},
		{
			name:     "unclassified falls back to not found",
			err:      errors.New("something odd"),
			wantCode: CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := Classify(tt.err)

			assert.Equal(t, tt.wantCode, payload.ErrorCode)
			assert.Equal(t, tt.wantRetryable, payload.Retryable)
			assert.NotEmpty(t, payload.Message)
		})
	}
}

func Test_Classify_ValidationErrors(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(struct {
		Name string `validate:"required"`
	}{})
	require.Error(t, err)

	payload := Classify(err)

	assert.Equal(t, CodeInvalidInput, payload.ErrorCode)
	assert.False(t, payload.Retryable)
}
