package basecamp

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/campgate/internal/models"
)

// validate checks decoded remote payloads against the expected shape.
// A violation is a construction error for that item, never a silent coerce.
var validate = validator.New()

// decodeItem unmarshals one raw remote item into R and validates its shape
func decodeItem[R any](raw json.RawMessage) (R, error) {
	var item R

	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("decoding remote item: %w", err)
	}

	if err := validate.Struct(item); err != nil {
		return item, fmt.Errorf("remote item shape violation: %w", err)
	}

	return item, nil
}

// rawAuthor is the remote `creator` shape
type rawAuthor struct {
	Name         string `json:"name" validate:"required"`
	EmailAddress string `json:"email_address"`
}

func (a rawAuthor) toModel() models.Author {
	return models.Author{Name: a.Name, Email: a.EmailAddress}
}
