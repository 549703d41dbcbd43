package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/models"
)

// memTokenRepo is an in-memory TokenRepo, safe for concurrent use
type memTokenRepo struct {
	mu      sync.Mutex
	records map[int64]models.TokenRecord
	saves   int
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{records: map[int64]models.TokenRecord{}}
}

func (r *memTokenRepo) Get(_ context.Context, userID int64) (models.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[userID]
	if !ok {
		return record, apperrors.ErrTokenNotFound
	}
	return record, nil
}

func (r *memTokenRepo) Save(_ context.Context, record models.TokenRecord) (models.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++
	r.records[record.UserID] = record
	return record, nil
}

func (r *memTokenRepo) Revoke(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, userID)
	return nil
}

func (r *memTokenRepo) SetSessionKey(context.Context, int64, string) error { return nil }

func (r *memTokenRepo) GetBySessionKey(context.Context, string) (models.TokenRecord, error) {
	return models.TokenRecord{}, apperrors.ErrTokenNotFound
}

// slowRefresher counts calls and can be told to fail or to take a while
type slowRefresher struct {
	calls atomic.Int64
	delay time.Duration
	err   error
}

func (f *slowRefresher) Refresh(_ context.Context, refreshToken string) (string, string, time.Time, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", "", time.Time{}, f.err
	}
	return "new-access", "new-refresh", time.Now().Add(2 * time.Hour), nil
}

func seedRecord(repo *memTokenRepo, userID int64, expiresAt time.Time) models.TokenRecord {
	record := models.TokenRecord{
		UserID:       userID,
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    expiresAt,
		AccountID:    "9999",
	}
	repo.records[userID] = record
	return record
}

func Test_Manager_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("fresh record returned without refresh", func(t *testing.T) {
		repo := newMemTokenRepo()
		refresher := &slowRefresher{}
		seeded := seedRecord(repo, 1, time.Now().Add(time.Hour))

		m, err := NewManager(Config{}, repo, refresher, nil)
		require.NoError(t, err)

		got, err := m.Resolve(t.Context(), 1)

		require.NoError(t, err)
		assert.Equal(t, seeded.AccessToken, got.AccessToken)
		assert.Zero(t, refresher.calls.Load(), "fresh token must not trigger refresh")
	})

	t.Run("record inside buffer is refreshed", func(t *testing.T) {
		repo := newMemTokenRepo()
		refresher := &slowRefresher{}
		seedRecord(repo, 1, time.Now().Add(time.Minute))

		m, err := NewManager(Config{}, repo, refresher, nil)
		require.NoError(t, err)

		got, err := m.Resolve(t.Context(), 1)

		require.NoError(t, err)
		assert.Equal(t, "new-access", got.AccessToken)
		assert.Equal(t, "new-refresh", got.RefreshToken)
		assert.Equal(t, int64(1), refresher.calls.Load())
		assert.Equal(t, 1, repo.saves, "rotated pair must be persisted")
	})

	t.Run("expired record is refreshed", func(t *testing.T) {
		repo := newMemTokenRepo()
		refresher := &slowRefresher{}
		seedRecord(repo, 1, time.Now().Add(-time.Hour))

		m, err := NewManager(Config{}, repo, refresher, nil)
		require.NoError(t, err)

		got, err := m.Resolve(t.Context(), 1)

		require.NoError(t, err)
		assert.Equal(t, "new-access", got.AccessToken)
	})

	t.Run("concurrent callers share one refresh", func(t *testing.T) {
		repo := newMemTokenRepo()
		refresher := &slowRefresher{delay: 50 * time.Millisecond}
		seedRecord(repo, 1, time.Now().Add(-time.Minute))

		m, err := NewManager(Config{}, repo, refresher, nil)
		require.NoError(t, err)

		const callers = 10
		results := make([]models.TokenRecord, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				record, err := m.Resolve(t.Context(), 1)
				assert.NoError(t, err)
				results[i] = record
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int64(1), refresher.calls.Load(), "refresh must be single-flight per user")
		for _, record := range results {
			assert.Equal(t, "new-access", record.AccessToken, "all callers get the same rotated pair")
		}
	})

	t.Run("distinct users refresh independently", func(t *testing.T) {
		repo := newMemTokenRepo()
		refresher := &slowRefresher{}
		seedRecord(repo, 1, time.Now().Add(-time.Minute))
		seedRecord(repo, 2, time.Now().Add(-time.Minute))

		m, err := NewManager(Config{}, repo, refresher, nil)
		require.NoError(t, err)

		_, err = m.Resolve(t.Context(), 1)
		require.NoError(t, err)
		_, err = m.Resolve(t.Context(), 2)
		require.NoError(t, err)

		assert.Equal(t, int64(2), refresher.calls.Load())
	})

	t.Run("missing record means reauth", func(t *testing.T) {
		repo := newMemTokenRepo()
		m, err := NewManager(Config{ReauthURL: "/oauth/start"}, repo, &slowRefresher{}, nil)
		require.NoError(t, err)

		_, err = m.Resolve(t.Context(), 404)

		var expErr *apperrors.TokenExpiredError
		require.ErrorAs(t, err, &expErr)
		assert.Equal(t, "/oauth/start", expErr.ReauthURL)
		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})

	t.Run("failed refresh means reauth", func(t *testing.T) {
		repo := newMemTokenRepo()
		refresher := &slowRefresher{err: errors.New("invalid_grant")}
		seedRecord(repo, 1, time.Now().Add(-time.Minute))

		m, err := NewManager(Config{ReauthURL: "/oauth/start"}, repo, refresher, nil)
		require.NoError(t, err)

		_, err = m.Resolve(t.Context(), 1)

		var expErr *apperrors.TokenExpiredError
		require.ErrorAs(t, err, &expErr)
		assert.Zero(t, repo.saves, "failed refresh must not touch the stored record")
	})

	t.Run("nil dependencies rejected", func(t *testing.T) {
		_, err := NewManager(Config{}, nil, &slowRefresher{}, nil)
		assert.Error(t, err)

		_, err = NewManager(Config{}, newMemTokenRepo(), nil, nil)
		assert.Error(t, err)
	})
}
