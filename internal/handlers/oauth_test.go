package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/models"
)

// fakeFlow is a scriptable authFlow
type fakeFlow struct {
	stateErr    error
	verifyErr   error
	exchanged   models.TokenRecord
	exchangeErr error
	revokeErr   error
	revoked     []string
}

func (f *fakeFlow) NewState() (string, error)     { return "the-state", f.stateErr }
func (f *fakeFlow) VerifyState(string) error      { return f.verifyErr }
func (f *fakeFlow) AuthorizeURL(state string) string {
	return "https://launchpad.example.com/authorization/new?state=" + state
}

func (f *fakeFlow) Exchange(context.Context, string) (models.TokenRecord, error) {
	return f.exchanged, f.exchangeErr
}

func (f *fakeFlow) Revoke(_ context.Context, accessToken string) error {
	f.revoked = append(f.revoked, accessToken)
	return f.revokeErr
}

// memRepo is an in-memory token store for handler tests
type memRepo struct {
	mu       sync.Mutex
	records  map[int64]models.TokenRecord
	sessions map[string]int64
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[int64]models.TokenRecord{}, sessions: map[string]int64{}}
}

func (r *memRepo) Get(_ context.Context, userID int64) (models.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[userID]
	if !ok {
		return record, apperrors.ErrTokenNotFound
	}
	return record, nil
}

func (r *memRepo) Save(_ context.Context, record models.TokenRecord) (models.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.UserID] = record
	return record, nil
}

func (r *memRepo) Revoke(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, userID)
	for key, id := range r.sessions {
		if id == userID {
			delete(r.sessions, key)
		}
	}
	return nil
}

func (r *memRepo) SetSessionKey(_ context.Context, userID int64, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[userID]; !ok {
		return apperrors.ErrTokenNotFound
	}
	r.sessions[key] = userID
	return nil
}

func (r *memRepo) GetBySessionKey(_ context.Context, key string) (models.TokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.sessions[key]
	if !ok {
		return models.TokenRecord{}, apperrors.ErrTokenNotFound
	}
	return r.records[userID], nil
}

func exchangedRecord() models.TokenRecord {
	return models.TokenRecord{
		UserID:       1001,
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
		AccountID:    "42",
		Email:        "user@example.com",
	}
}

func Test_OAuth_Start(t *testing.T) {
	t.Parallel()

	handler := NewOAuth(&fakeFlow{}, newMemRepo(), nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/start", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "state=the-state")
}

func Test_OAuth_Callback(t *testing.T) {
	t.Parallel()

	t.Run("happy path stores token and mints agent url", func(t *testing.T) {
		repo := newMemRepo()
		handler := NewOAuth(&fakeFlow{exchanged: exchangedRecord()}, repo, nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=the-code&state=the-state", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			UserID   int64  `json:"user_id"`
			Email    string `json:"email"`
			AgentURL string `json:"agent_url"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int64(1001), body.UserID)
		assert.Equal(t, "user@example.com", body.Email)
		assert.Contains(t, body.AgentURL, "/agent/")

		// The minted key must resolve back to the stored record
		key := body.AgentURL[len("/agent/"):]
		record, err := repo.GetBySessionKey(t.Context(), key)
		require.NoError(t, err)
		assert.Equal(t, int64(1001), record.UserID)
	})

	t.Run("missing code", func(t *testing.T) {
		handler := NewOAuth(&fakeFlow{}, newMemRepo(), nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=the-state", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad state", func(t *testing.T) {
		handler := NewOAuth(&fakeFlow{verifyErr: assert.AnError}, newMemRepo(), nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=the-code&state=forged", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no basecamp account", func(t *testing.T) {
		handler := NewOAuth(&fakeFlow{exchangeErr: apperrors.ErrNoAccount}, newMemRepo(), nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=the-code&state=the-state", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("remote failure", func(t *testing.T) {
		handler := NewOAuth(&fakeFlow{exchangeErr: assert.AnError}, newMemRepo(), nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=the-code&state=the-state", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func Test_OAuth_Revoke(t *testing.T) {
	t.Parallel()

	t.Run("revokes remotely and locally", func(t *testing.T) {
		repo := newMemRepo()
		_, err := repo.Save(t.Context(), exchangedRecord())
		require.NoError(t, err)

		flow := &fakeFlow{}
		handler := NewOAuth(flow, repo, nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/revoke?user_id=1001", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"access"}, flow.revoked)

		_, err = repo.Get(t.Context(), 1001)
		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})

	t.Run("remote failure never blocks local removal", func(t *testing.T) {
		repo := newMemRepo()
		_, err := repo.Save(t.Context(), exchangedRecord())
		require.NoError(t, err)

		handler := NewOAuth(&fakeFlow{revokeErr: assert.AnError}, repo, nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/revoke?user_id=1001", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		_, err = repo.Get(t.Context(), 1001)
		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		handler := NewOAuth(&fakeFlow{}, newMemRepo(), nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/revoke?user_id=404", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing user_id", func(t *testing.T) {
		handler := NewOAuth(&fakeFlow{}, newMemRepo(), nil).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/revoke", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
