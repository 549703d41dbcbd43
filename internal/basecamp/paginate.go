package basecamp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/nkiryanov/campgate/internal/models"
)

const (
	// Hard cap on items per page, whatever the remote returned
	maxPageItems = 100

	// Hard cap on the serialized items payload, 50KB
	maxPayloadBytes = 51200
)

// Basecamp list endpoints use RFC 5988 Link headers for cursor pagination,
// e.g. `<https://3.basecampapi.com/123/projects.json?page=2>; rel="next"`
var nextLinkRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Paginate fetches one page of a list endpoint and returns the normalized
// envelope. Two independent caps protect downstream consumers: at most 100
// items are kept, and trailing items are dropped until the serialized
// payload fits in 50KB. Either truncation forces HasMore true.
func Paginate[T any](ctx context.Context, c *Client, path string, page int, transform func(json.RawMessage) (T, error)) (models.PaginatedResult[T], error) {
	var result models.PaginatedResult[T]

	if page < 1 {
		page = 1
	}

	query := url.Values{"page": []string{strconv.Itoa(page)}}
	body, header, err := c.GetRaw(ctx, path, query)
	if err != nil {
		return result, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return result, fmt.Errorf("list response for %s is not an array: %w", path, err)
	}

	countTruncated := len(raw) > maxPageItems
	if countTruncated {
		raw = raw[:maxPageItems]
	}

	items := make([]T, 0, len(raw))
	for _, rawItem := range raw {
		item, err := transform(rawItem)
		if err != nil {
			return result, fmt.Errorf("transforming item from %s: %w", path, err)
		}
		items = append(items, item)
	}

	items, sizeTruncated, err := capPayload(items)
	if err != nil {
		return result, err
	}

	nextPage := nextPageNumber(header)

	result.Items = items
	result.HasMore = nextPage != nil || countTruncated || sizeTruncated
	if nextPage != nil {
		result.NextPage = nextPage
	}

	return result, nil
}

// capPayload drops items from the end, one at a time, until the serialized
// slice fits the payload cap or nothing is left
func capPayload[T any](items []T) ([]T, bool, error) {
	truncated := false

	for len(items) > 0 {
		serialized, err := json.Marshal(items)
		if err != nil {
			return nil, false, fmt.Errorf("serializing page items: %w", err)
		}
		if len(serialized) <= maxPayloadBytes {
			break
		}

		items = items[:len(items)-1]
		truncated = true
	}

	return items, truncated, nil
}

// nextPageNumber extracts the page query value of the rel="next" link
func nextPageNumber(header http.Header) *int {
	match := nextLinkRe.FindStringSubmatch(header.Get("Link"))
	if match == nil {
		return nil
	}

	parsed, err := url.Parse(match[1])
	if err != nil {
		return nil
	}

	page, err := strconv.Atoi(parsed.Query().Get("page"))
	if err != nil || page < 1 {
		return nil
	}

	return &page
}
