package basecamp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/campgate/internal/models"
)

// Document listings keep at most this many characters of content.
// A payload-size policy, not a remote limitation: full text comes from
// GetDocument only.
const documentPreviewChars = 500

type rawDocument struct {
	ID        int64     `json:"id" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Content   string    `json:"content"`
	CreatedAt string    `json:"created_at" validate:"required"`
	UpdatedAt string    `json:"updated_at" validate:"required"`
	AppURL    string    `json:"app_url" validate:"required"`
	Creator   rawAuthor `json:"creator"`
}

func documentFromRaw(raw json.RawMessage) (models.Document, error) {
	d, err := decodeItem[rawDocument](raw)
	if err != nil {
		return models.Document{}, err
	}

	return models.Document{
		ID:        d.ID,
		Title:     d.Title,
		Author:    d.Creator.toModel(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		URL:       d.AppURL,
		Content:   ToPlainText(d.Content),
	}, nil
}

func documentSummaryFromRaw(raw json.RawMessage) (models.Document, error) {
	doc, err := documentFromRaw(raw)
	if err != nil {
		return doc, err
	}

	if content := []rune(doc.Content); len(content) > documentPreviewChars {
		doc.Content = string(content[:documentPreviewChars])
	}
	doc.Truncated = true

	return doc, nil
}

// ListDocuments returns one page of vault documents with previewed content
func (c *Client) ListDocuments(ctx context.Context, projectID, vaultID int64, page int) (models.PaginatedResult[models.Document], error) {
	path := fmt.Sprintf("buckets/%d/vaults/%d/documents.json", projectID, vaultID)
	return Paginate(ctx, c, path, page, documentSummaryFromRaw)
}

// GetDocument returns a single document with full markdown content
func (c *Client) GetDocument(ctx context.Context, projectID, documentID int64) (models.Document, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("buckets/%d/documents/%d.json", projectID, documentID), nil)
	if err != nil {
		return models.Document{}, err
	}

	return documentFromRaw(raw)
}
