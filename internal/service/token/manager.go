package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/models"
	"github.com/nkiryanov/campgate/internal/repository"
)

// Refresh starts this long before the access token expires, so a request
// never rides an about-to-expire token
const defaultRefreshBuffer = 5 * time.Minute

// refresher is the single call the manager needs of the auth flow client
type refresher interface {
	Refresh(ctx context.Context, refreshToken string) (access string, refresh string, expiresAt time.Time, err error)
}

type Config struct {
	// Lead time before expiry at which proactive refresh triggers
	// Default is used if zero
	RefreshBuffer time.Duration

	// URL the caller is sent to when no credential can be recovered
	ReauthURL string
}

// Manager resolves a valid access token per user. Refreshes are
// single-flight per user: the remote refresh token is single-use and
// rotates, so concurrent duplicate refresh calls would invalidate each
// other and desynchronize local state from remote state.
type Manager struct {
	buffer    time.Duration
	reauthURL string

	tokens    repository.TokenRepo
	refresher refresher
	group     singleflight.Group
	logger    logger.Logger

	now func() time.Time
}

func NewManager(cfg Config, tokens repository.TokenRepo, refresher refresher, log logger.Logger) (*Manager, error) {
	if tokens == nil || refresher == nil {
		return nil, errors.New("token repo and refresher must not be nil")
	}

	buffer := cfg.RefreshBuffer
	if buffer == 0 {
		buffer = defaultRefreshBuffer
	}

	if log == nil {
		log = logger.NewNoOp()
	}

	return &Manager{
		buffer:    buffer,
		reauthURL: cfg.ReauthURL,
		tokens:    tokens,
		refresher: refresher,
		logger:    log,
		now:       time.Now,
	}, nil
}

// Resolve returns a usable token record for the user.
// Fresh records return without any network call. Records inside the refresh
// buffer are refreshed, concurrent callers share one refresh. When nothing
// can be recovered the caller gets TokenExpiredError and must re-authorize.
func (m *Manager) Resolve(ctx context.Context, userID int64) (models.TokenRecord, error) {
	record, err := m.tokens.Get(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return record, &apperrors.TokenExpiredError{ReauthURL: m.reauthURL, Err: err}
	case err != nil:
		return record, err
	}

	if record.ExpiresAt.Sub(m.now()) > m.buffer {
		return record, nil
	}

	shared, err, _ := m.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return m.refresh(ctx, record)
	})
	if err != nil {
		return models.TokenRecord{}, err
	}

	return shared.(models.TokenRecord), nil
}

// refresh performs the remote exchange and persists the rotated pair as one
// atomic replace. No retry on failure: a second attempt would reuse an
// already-rotated refresh token and fail too.
func (m *Manager) refresh(ctx context.Context, record models.TokenRecord) (models.TokenRecord, error) {
	access, refresh, expiresAt, err := m.refresher.Refresh(ctx, record.RefreshToken)
	if err != nil {
		m.logger.Warn("Token refresh failed", "user_id", record.UserID, "error", err)
		return models.TokenRecord{}, &apperrors.TokenExpiredError{ReauthURL: m.reauthURL, Err: err}
	}

	record.AccessToken = access
	record.RefreshToken = refresh
	record.ExpiresAt = expiresAt

	saved, err := m.tokens.Save(ctx, record)
	if err != nil {
		return models.TokenRecord{}, err
	}

	m.logger.Debug("Token refreshed", "user_id", record.UserID, "expires_at", saved.ExpiresAt)
	return saved, nil
}
