package basecamp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/campgate/internal/models"
)

type rawCampfireLine struct {
	ID        int64     `json:"id" validate:"required"`
	Content   string    `json:"content"`
	CreatedAt string    `json:"created_at" validate:"required"`
	UpdatedAt string    `json:"updated_at" validate:"required"`
	AppURL    string    `json:"app_url" validate:"required"`
	Creator   rawAuthor `json:"creator"`
}

func campfireLineFromRaw(raw json.RawMessage) (models.CampfireLine, error) {
	l, err := decodeItem[rawCampfireLine](raw)
	if err != nil {
		return models.CampfireLine{}, err
	}

	// Chat lines have no title
	return models.CampfireLine{
		ID:        l.ID,
		Author:    l.Creator.toModel(),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
		URL:       l.AppURL,
		Content:   ToPlainText(l.Content),
	}, nil
}

// ListCampfireLines returns one page of chat lines of a campfire room
func (c *Client) ListCampfireLines(ctx context.Context, projectID, chatID int64, page int) (models.PaginatedResult[models.CampfireLine], error) {
	path := fmt.Sprintf("buckets/%d/chats/%d/lines.json", projectID, chatID)
	return Paginate(ctx, c, path, page, campfireLineFromRaw)
}
