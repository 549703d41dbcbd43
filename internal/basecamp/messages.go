package basecamp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/campgate/internal/models"
)

type rawMessage struct {
	ID            int64     `json:"id" validate:"required"`
	Subject       string    `json:"subject" validate:"required"`
	Content       string    `json:"content"`
	CreatedAt     string    `json:"created_at" validate:"required"`
	UpdatedAt     string    `json:"updated_at" validate:"required"`
	AppURL        string    `json:"app_url" validate:"required"`
	Creator       rawAuthor `json:"creator"`
	CommentsCount int       `json:"comments_count"`
}

func messageFromRaw(raw json.RawMessage) (models.Message, error) {
	m, err := decodeItem[rawMessage](raw)
	if err != nil {
		return models.Message{}, err
	}

	return models.Message{
		ID:           m.ID,
		Title:        m.Subject,
		Author:       m.Creator.toModel(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		URL:          m.AppURL,
		Content:      ToPlainText(m.Content),
		RepliesCount: m.CommentsCount,
	}, nil
}

// ListMessages returns one page of message board posts
func (c *Client) ListMessages(ctx context.Context, projectID, boardID int64, page int) (models.PaginatedResult[models.Message], error) {
	path := fmt.Sprintf("buckets/%d/message_boards/%d/messages.json", projectID, boardID)
	return Paginate(ctx, c, path, page, messageFromRaw)
}

// GetMessage returns a single board post with full markdown content
func (c *Client) GetMessage(ctx context.Context, projectID, messageID int64) (models.Message, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("buckets/%d/messages/%d.json", projectID, messageID), nil)
	if err != nil {
		return models.Message{}, err
	}

	return messageFromRaw(raw)
}
