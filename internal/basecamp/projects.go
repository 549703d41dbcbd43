package basecamp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/campgate/internal/models"
)

// Dock entry names used by the remote service. Lookup is by `name`,
// not by `type`.
const (
	DockMessageBoard = "message_board"
	DockTodoset      = "todoset"
	DockVault        = "vault"
	DockChat         = "chat"
)

type rawProject struct {
	ID          int64         `json:"id" validate:"required"`
	Name        string        `json:"name" validate:"required"`
	Description string        `json:"description"`
	Status      string        `json:"status" validate:"required"`
	CreatedAt   string        `json:"created_at" validate:"required"`
	UpdatedAt   string        `json:"updated_at" validate:"required"`
	AppURL      string        `json:"app_url" validate:"required"`
	Creator     rawAuthor     `json:"creator"`
	Dock        []rawDockTool `json:"dock"`
}

type rawDockTool struct {
	ID      int64  `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Enabled bool   `json:"enabled"`
	AppURL  string `json:"app_url"`
}

func projectFromRaw(raw json.RawMessage) (models.Project, error) {
	p, err := decodeItem[rawProject](raw)
	if err != nil {
		return models.Project{}, err
	}

	return models.Project{
		ID:          p.ID,
		Title:       p.Name,
		Author:      p.Creator.toModel(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		URL:         p.AppURL,
		Status:      p.Status,
		Description: p.Description,
	}, nil
}

// ListProjects returns one page of projects accessible to the credential
func (c *Client) ListProjects(ctx context.Context, page int) (models.PaginatedResult[models.Project], error) {
	return Paginate(ctx, c, "projects.json", page, projectFromRaw)
}

// GetProject returns a single project envelope
func (c *Client) GetProject(ctx context.Context, projectID int64) (models.Project, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("projects/%d.json", projectID), nil)
	if err != nil {
		return models.Project{}, err
	}

	return projectFromRaw(raw)
}

// ProjectTools returns the project's dock: internal sub-tool ids with their
// enabled flags. Callers need these ids for every content listing.
func (c *Client) ProjectTools(ctx context.Context, projectID int64) (models.ProjectTools, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("projects/%d.json", projectID), nil)
	if err != nil {
		return models.ProjectTools{}, err
	}

	p, err := decodeItem[rawProject](raw)
	if err != nil {
		return models.ProjectTools{}, err
	}

	tools := models.ProjectTools{
		ProjectID:   p.ID,
		ProjectName: p.Name,
		Tools:       make(map[string]models.DockTool, len(p.Dock)),
	}

	for _, d := range p.Dock {
		tools.Tools[d.Name] = models.DockTool{
			ID:      d.ID,
			Name:    d.Name,
			Enabled: d.Enabled,
			URL:     d.AppURL,
		}

		id := d.ID
		switch d.Name {
		case DockMessageBoard:
			tools.MessageBoardID = &id
		case DockTodoset:
			tools.TodosetID = &id
		case DockVault:
			tools.VaultID = &id
		case DockChat:
			tools.ChatID = &id
		}
	}

	return tools, nil
}
