package repository

import (
	"context"

	"github.com/nkiryanov/campgate/internal/models"
)

// TokenRepo is the single source of truth for user credentials.
// Records are replaced whole: access and refresh tokens are never
// persisted separately, a partial write would desynchronize the pair.
type TokenRepo interface {
	// Get record by basecamp user id
	// Must return apperrors.ErrTokenNotFound if no record exists
	Get(ctx context.Context, userID int64) (models.TokenRecord, error)

	// Save record: atomic upsert keyed by user id, full replace
	Save(ctx context.Context, record models.TokenRecord) (models.TokenRecord, error)

	// Revoke deletes the record for the user
	// Deleting a missing record is not an error
	Revoke(ctx context.Context, userID int64) error

	// SetSessionKey binds an opaque routing key to the user's record
	// Must return apperrors.ErrSessionKeyTaken on key collision
	SetSessionKey(ctx context.Context, userID int64, key string) error

	// GetBySessionKey resolves a routing key to the record
	// Must return apperrors.ErrTokenNotFound for unknown or revoked keys
	GetBySessionKey(ctx context.Context, key string) (models.TokenRecord, error)
}

// Storage aggregates repositories over one db handle
type Storage interface {
	Tokens() TokenRepo

	// InTx runs fn inside one transaction: commits on nil, rolls back otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
