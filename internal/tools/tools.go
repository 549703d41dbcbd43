package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/basecamp"
	"github.com/nkiryanov/campgate/internal/models"
)

// Window of chat history returned when neither since nor limit is given
const defaultCampfireWindow = 24 * time.Hour

func (r *Registry) registerAll() {
	r.register(Tool{
		Name:        "list_projects",
		Description: "List projects accessible to the authenticated user. Returns project ids, names, descriptions and statuses. Use project_id from results to call other tools.",
		run:         listProjects,
	})
	r.register(Tool{
		Name:        "get_project_tools",
		Description: "Get the internal tool ids of a project: message_board_id, todoset_id, vault_id and chat_id, with their enabled flags. Call this before content tools for a project you have not queried before.",
		run:         getProjectTools,
	})
	r.register(Tool{
		Name:        "list_messages",
		Description: "List message board posts of a project. Content is returned as markdown.",
		run:         listMessages,
	})
	r.register(Tool{
		Name:        "get_message",
		Description: "Get a single message board post with full content as markdown.",
		run:         getMessage,
	})
	r.register(Tool{
		Name:        "list_todolists",
		Description: "List to-do lists of a project. Use todolist ids from results to call list_todos.",
		run:         listTodoLists,
	})
	r.register(Tool{
		Name:        "list_todos",
		Description: "List to-do items of one to-do list. Returns incomplete items unless completed=true.",
		run:         listTodos,
	})
	r.register(Tool{
		Name:        "get_todo",
		Description: "Get a single to-do item with assignees, due date and completion state.",
		run:         getTodo,
	})
	r.register(Tool{
		Name:        "list_documents",
		Description: "List vault documents with a preview of the content (first 500 characters). Use get_document for the full text.",
		run:         listDocuments,
	})
	r.register(Tool{
		Name:        "get_document",
		Description: "Get a single document with full content as markdown.",
		run:         getDocument,
	})
	r.register(Tool{
		Name:        "list_campfire_lines",
		Description: "List chat lines of a campfire room. Defaults to the last 24 hours when neither since nor limit is given.",
		run:         listCampfireLines,
	})
	r.register(Tool{
		Name:        "list_attachments",
		Description: "List vault file attachments. Metadata only: filename, content type, size and download URL. Binary content is never fetched.",
		run:         listAttachments,
	})
}

// resolveDockID returns the explicitly given sub-tool id or looks it up in
// the project's dock. A missing or disabled dock entry is a
// TOOL_NOT_ENABLED failure.
func resolveDockID(ctx context.Context, g gateway, projectID int64, given int64, dockName string) (int64, error) {
	if given > 0 {
		return given, nil
	}

	projectTools, err := g.ProjectTools(ctx, projectID)
	if err != nil {
		return 0, err
	}

	tool, ok := projectTools.Tools[dockName]
	if !ok || !tool.Enabled {
		return 0, fmt.Errorf("%s in project %d: %w", dockName, projectID, apperrors.ErrToolNotEnabled)
	}

	return tool.ID, nil
}

func listProjects(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		Status string `json:"status" validate:"omitempty,oneof=active archived all"`
		Page   int    `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = "active"
	}

	result, err := g.ListProjects(ctx, in.Page)
	if err != nil {
		return nil, err
	}

	// The remote returns all statuses, filter locally
	if in.Status != "all" {
		kept := result.Items[:0]
		for _, p := range result.Items {
			if p.Status == in.Status {
				kept = append(kept, p)
			}
		}
		result.Items = kept
	}

	return result, nil
}

func getProjectTools(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64 `json:"project_id" validate:"required,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	return g.ProjectTools(ctx, in.ProjectID)
}

func listMessages(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID      int64 `json:"project_id" validate:"required,min=1"`
		MessageBoardID int64 `json:"message_board_id" validate:"omitempty,min=1"`
		Page           int   `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	boardID, err := resolveDockID(ctx, g, in.ProjectID, in.MessageBoardID, basecamp.DockMessageBoard)
	if err != nil {
		return nil, err
	}

	return g.ListMessages(ctx, in.ProjectID, boardID, in.Page)
}

func getMessage(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64 `json:"project_id" validate:"required,min=1"`
		MessageID int64 `json:"message_id" validate:"required,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	return g.GetMessage(ctx, in.ProjectID, in.MessageID)
}

func listTodoLists(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64 `json:"project_id" validate:"required,min=1"`
		TodosetID int64 `json:"todoset_id" validate:"omitempty,min=1"`
		Page      int   `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	todosetID, err := resolveDockID(ctx, g, in.ProjectID, in.TodosetID, basecamp.DockTodoset)
	if err != nil {
		return nil, err
	}

	return g.ListTodoLists(ctx, in.ProjectID, todosetID, in.Page)
}

func listTodos(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID  int64 `json:"project_id" validate:"required,min=1"`
		TodolistID int64 `json:"todolist_id" validate:"required,min=1"`
		Completed  bool  `json:"completed"`
		Page       int   `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	result, err := g.ListTodos(ctx, in.ProjectID, in.TodolistID, in.Page)
	if err != nil {
		return nil, err
	}

	kept := result.Items[:0]
	for _, t := range result.Items {
		if t.Completed == in.Completed {
			kept = append(kept, t)
		}
	}
	result.Items = kept

	return result, nil
}

func getTodo(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64 `json:"project_id" validate:"required,min=1"`
		TodoID    int64 `json:"todo_id" validate:"required,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	return g.GetTodo(ctx, in.ProjectID, in.TodoID)
}

func listDocuments(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64 `json:"project_id" validate:"required,min=1"`
		VaultID   int64 `json:"vault_id" validate:"omitempty,min=1"`
		Page      int   `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	vaultID, err := resolveDockID(ctx, g, in.ProjectID, in.VaultID, basecamp.DockVault)
	if err != nil {
		return nil, err
	}

	return g.ListDocuments(ctx, in.ProjectID, vaultID, in.Page)
}

func getDocument(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID  int64 `json:"project_id" validate:"required,min=1"`
		DocumentID int64 `json:"document_id" validate:"required,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	return g.GetDocument(ctx, in.ProjectID, in.DocumentID)
}

type campfireLinesResult struct {
	models.PaginatedResult[models.CampfireLine]
	Since *string `json:"since"`
}

func listCampfireLines(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64   `json:"project_id" validate:"required,min=1"`
		ChatID    int64   `json:"chat_id" validate:"omitempty,min=1"`
		Since     *string `json:"since"`
		Limit     *int    `json:"limit" validate:"omitempty,min=1,max=200"`
		Page      int     `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	// Neither since nor limit given: default to the last 24 hours
	since := in.Since
	if since == nil && in.Limit == nil {
		fallback := time.Now().Add(-defaultCampfireWindow).UTC().Format(time.RFC3339)
		since = &fallback
	}

	var sinceAt time.Time
	if since != nil {
		sinceAt, err = time.Parse(time.RFC3339, *since)
		if err != nil {
			return nil, fmt.Errorf("%w: since must be RFC 3339: %s", apperrors.ErrInvalidInput, err)
		}
	}

	chatID, err := resolveDockID(ctx, g, in.ProjectID, in.ChatID, basecamp.DockChat)
	if err != nil {
		return nil, err
	}

	result, err := g.ListCampfireLines(ctx, in.ProjectID, chatID, in.Page)
	if err != nil {
		return nil, err
	}

	// The remote does not filter chat lines by time, apply since locally
	if since != nil {
		kept := result.Items[:0]
		for _, line := range result.Items {
			createdAt, err := time.Parse(time.RFC3339, line.CreatedAt)
			if err != nil || !createdAt.Before(sinceAt) {
				kept = append(kept, line)
			}
		}
		result.Items = kept
	}

	// Limit keeps the most recent lines
	if in.Limit != nil && len(result.Items) > *in.Limit {
		result.Items = result.Items[len(result.Items)-*in.Limit:]
	}

	return campfireLinesResult{PaginatedResult: result, Since: since}, nil
}

func listAttachments(ctx context.Context, g gateway, input json.RawMessage) (any, error) {
	in, err := decodeInput[struct {
		ProjectID int64 `json:"project_id" validate:"required,min=1"`
		VaultID   int64 `json:"vault_id" validate:"omitempty,min=1"`
		Page      int   `json:"page" validate:"omitempty,min=1"`
	}](input)
	if err != nil {
		return nil, err
	}

	vaultID, err := resolveDockID(ctx, g, in.ProjectID, in.VaultID, basecamp.DockVault)
	if err != nil {
		return nil, err
	}

	return g.ListAttachments(ctx, in.ProjectID, vaultID, in.Page)
}
