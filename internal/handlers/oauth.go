package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/handlers/render"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/models"
	"github.com/nkiryanov/campgate/internal/repository"
)

// authFlow is what the oauth handler needs of the authorization client
type authFlow interface {
	NewState() (string, error)
	VerifyState(state string) error
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (models.TokenRecord, error)
	Revoke(ctx context.Context, accessToken string) error
}

type OAuthHandler struct {
	flow   authFlow
	tokens repository.TokenRepo
	logger logger.Logger
}

func NewOAuth(flow authFlow, tokens repository.TokenRepo, log logger.Logger) *OAuthHandler {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &OAuthHandler{flow: flow, tokens: tokens, logger: log}
}

func (h *OAuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /start", h.start)
	mux.HandleFunc("GET /callback", h.callback)
	mux.HandleFunc("GET /revoke", h.revoke)

	return mux
}

func (h *OAuthHandler) start(w http.ResponseWriter, r *http.Request) {
	state, err := h.flow.NewState()
	if err != nil {
		h.logger.Error("Failed to mint oauth state", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.flow.AuthorizeURL(state), http.StatusFound)
}

func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	type CallbackResponse struct {
		Message  string `json:"message"`
		UserID   int64  `json:"user_id"`
		Email    string `json:"email"`
		AgentURL string `json:"agent_url"`
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		render.ServiceError(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	if err := h.flow.VerifyState(r.URL.Query().Get("state")); err != nil {
		render.ServiceError(w, "Invalid or expired state", http.StatusBadRequest)
		return
	}

	record, err := h.flow.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("OAuth code exchange failed", "error", err)
		switch {
		case errors.Is(err, apperrors.ErrNoAccount):
			render.ServiceError(w, "No basecamp account found for this user", http.StatusUnprocessableEntity)
		default:
			render.ServiceError(w, "Authorization failed", http.StatusBadGateway)
		}
		return
	}

	saved, err := h.tokens.Save(r.Context(), record)
	if err != nil {
		h.logger.Error("Failed to store token record", "user_id", record.UserID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Session key routes agent requests to this user without headers
	key := uuid.NewString()
	if err := h.tokens.SetSessionKey(r.Context(), saved.UserID, key); err != nil {
		h.logger.Error("Failed to bind session key", "user_id", saved.UserID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, CallbackResponse{
		Message:  "Authorization complete",
		UserID:   saved.UserID,
		Email:    saved.Email,
		AgentURL: "/agent/" + key,
	})
}

func (h *OAuthHandler) revoke(w http.ResponseWriter, r *http.Request) {
	type RevokeResponse struct {
		Message string `json:"message"`
		UserID  int64  `json:"user_id"`
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		render.ServiceError(w, "Missing or invalid user_id query param", http.StatusBadRequest)
		return
	}

	record, err := h.tokens.Get(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTokenNotFound):
			render.ServiceError(w, "No token found for that user_id", http.StatusNotFound)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Remote revocation failure never blocks local removal
	if err := h.flow.Revoke(r.Context(), record.AccessToken); err != nil {
		h.logger.Warn("Remote revocation failed, removing local token anyway", "user_id", userID, "error", err)
	}

	if err := h.tokens.Revoke(r.Context(), userID); err != nil {
		h.logger.Error("Failed to revoke token record", "user_id", userID, "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, RevokeResponse{Message: "Token revoked", UserID: userID})
}
