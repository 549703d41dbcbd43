package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/models"
)

type TokenRepo struct {
	db DBTX
}

const saveToken = `-- name: SaveToken
INSERT INTO tokens (user_id, access_token, refresh_token, expires_at, account_id, email)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
    access_token  = excluded.access_token,
    refresh_token = excluded.refresh_token,
    expires_at    = excluded.expires_at,
    account_id    = excluded.account_id,
    email         = excluded.email,
    updated_at    = now()
RETURNING user_id, access_token, refresh_token, expires_at, account_id, email, created_at, updated_at
`

// Save upserts the whole record keyed by user id. Access and refresh
// tokens always land together, a rotated pair never persists half-written.
func (r *TokenRepo) Save(ctx context.Context, record models.TokenRecord) (models.TokenRecord, error) {
	rows, _ := r.db.Query(ctx, saveToken,
		record.UserID, record.AccessToken, record.RefreshToken, record.ExpiresAt, record.AccountID, record.Email)
	saved, err := pgx.CollectOneRow(rows, rowToTokenRecord)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

const getToken = `-- name: GetToken
SELECT user_id, access_token, refresh_token, expires_at, account_id, email, created_at, updated_at
FROM tokens
WHERE user_id = $1
`

func (r *TokenRepo) Get(ctx context.Context, userID int64) (models.TokenRecord, error) {
	rows, _ := r.db.Query(ctx, getToken, userID)
	record, err := pgx.CollectOneRow(rows, rowToTokenRecord)

	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, pgx.ErrNoRows):
		return record, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	default:
		return record, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeToken
DELETE FROM tokens
WHERE user_id = $1
`

func (r *TokenRepo) Revoke(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, revokeToken, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const setSessionKey = `-- name: SetSessionKey
UPDATE tokens
SET session_key = $2, updated_at = now()
WHERE user_id = $1
`

func (r *TokenRepo) SetSessionKey(ctx context.Context, userID int64, key string) error {
	tag, err := r.db.Exec(ctx, setSessionKey, userID, key)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return fmt.Errorf("repo error: %w", apperrors.ErrSessionKeyTaken)
		}
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	}

	return nil
}

const getBySessionKey = `-- name: GetBySessionKey
SELECT user_id, access_token, refresh_token, expires_at, account_id, email, created_at, updated_at
FROM tokens
WHERE session_key = $1
`

func (r *TokenRepo) GetBySessionKey(ctx context.Context, key string) (models.TokenRecord, error) {
	rows, _ := r.db.Query(ctx, getBySessionKey, key)
	record, err := pgx.CollectOneRow(rows, rowToTokenRecord)

	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, pgx.ErrNoRows):
		return record, fmt.Errorf("repo error: %w", apperrors.ErrTokenNotFound)
	default:
		return record, fmt.Errorf("db error: %w", err)
	}
}

func rowToTokenRecord(row pgx.CollectableRow) (models.TokenRecord, error) {
	var r models.TokenRecord
	err := row.Scan(&r.UserID, &r.AccessToken, &r.RefreshToken, &r.ExpiresAt, &r.AccountID, &r.Email, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
