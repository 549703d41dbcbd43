package basecamp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/campgate/internal/models"
)

type rawAttachment struct {
	ID          int64     `json:"id" validate:"required"`
	Filename    string    `json:"filename" validate:"required"`
	ContentType string    `json:"content_type" validate:"required"`
	ByteSize    int64     `json:"byte_size"`
	DownloadURL string    `json:"download_url"`
	CreatedAt   string    `json:"created_at" validate:"required"`
	UpdatedAt   string    `json:"updated_at" validate:"required"`
	AppURL      string    `json:"app_url" validate:"required"`
	Creator     rawAuthor `json:"creator"`
}

func attachmentFromRaw(raw json.RawMessage) (models.Attachment, error) {
	a, err := decodeItem[rawAttachment](raw)
	if err != nil {
		return models.Attachment{}, err
	}

	// Metadata only. Content stays empty, the binary is never fetched.
	return models.Attachment{
		ID:          a.ID,
		Title:       a.Filename,
		Author:      a.Creator.toModel(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		URL:         a.AppURL,
		ContentType: a.ContentType,
		ByteSize:    a.ByteSize,
		DownloadURL: a.DownloadURL,
	}, nil
}

// ListAttachments returns one page of vault uploads, metadata only
func (c *Client) ListAttachments(ctx context.Context, projectID, vaultID int64, page int) (models.PaginatedResult[models.Attachment], error) {
	path := fmt.Sprintf("buckets/%d/vaults/%d/uploads.json", projectID, vaultID)
	return Paginate(ctx, c, path, page, attachmentFromRaw)
}
