package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/handlers/render"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/repository"
	"github.com/nkiryanov/campgate/internal/tools"
)

// Tool input is small structured JSON, anything bigger is abuse
const maxToolInputBytes = 64 * 1024

// invoker is what the handler needs of the tool registry
type invoker interface {
	Names() []string
	Describe(name string) (tools.Tool, bool)
	Invoke(ctx context.Context, userID int64, name string, input json.RawMessage) (any, *tools.ErrorPayload)
}

type ToolsHandler struct {
	registry invoker
	tokens   repository.TokenRepo
	logger   logger.Logger
}

func NewTools(registry invoker, tokens repository.TokenRepo, log logger.Logger) *ToolsHandler {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &ToolsHandler{registry: registry, tokens: tokens, logger: log}
}

func (h *ToolsHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /agent/{key}/tools", h.list)
	mux.HandleFunc("POST /agent/{key}/tools/{tool}", h.invoke)

	return mux
}

func (h *ToolsHandler) list(w http.ResponseWriter, r *http.Request) {
	type ToolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	type ListResponse struct {
		Tools []ToolInfo `json:"tools"`
	}

	if _, ok := h.authorize(w, r); !ok {
		return
	}

	response := ListResponse{}
	for _, name := range h.registry.Names() {
		tool, _ := h.registry.Describe(name)
		response.Tools = append(response.Tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	}

	render.JSON(w, response)
}

func (h *ToolsHandler) invoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	input, err := io.ReadAll(io.LimitReader(r.Body, maxToolInputBytes))
	if err != nil {
		render.ServiceError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	result, errPayload := h.registry.Invoke(r.Context(), userID, r.PathValue("tool"), input)
	if errPayload != nil {
		render.JSONStatus(w, errPayload, statusForCode(errPayload.ErrorCode))
		return
	}

	render.JSON(w, result)
}

// authorize resolves the session key path segment to a user id
func (h *ToolsHandler) authorize(w http.ResponseWriter, r *http.Request) (int64, bool) {
	record, err := h.tokens.GetBySessionKey(r.Context(), r.PathValue("key"))
	if err != nil {
		if !errors.Is(err, apperrors.ErrTokenNotFound) {
			h.logger.Error("Session key lookup failed", "error", err)
		}
		render.ServiceError(w, "Unknown agent key", http.StatusUnauthorized)
		return 0, false
	}

	return record.UserID, true
}

func statusForCode(code tools.Code) int {
	switch code {
	case tools.CodeTokenExpired:
		return http.StatusUnauthorized
	case tools.CodeRateLimited:
		return http.StatusTooManyRequests
	case tools.CodeNotFound, tools.CodeToolNotEnabled:
		return http.StatusNotFound
	case tools.CodePermissionDenied:
		return http.StatusForbidden
	case tools.CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
