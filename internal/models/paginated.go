package models

// PaginatedResult is the envelope every list call returns.
// Items preserve remote order. HasMore is true if the remote cursor
// indicated another page or local caps forced truncation.
// HasMore == false implies NextPage == nil.
type PaginatedResult[T any] struct {
	Items    []T  `json:"items"`
	HasMore  bool `json:"has_more"`
	NextPage *int `json:"next_page"`
}
