package basecamp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/campgate/internal/models"
)

type rawTodoList struct {
	ID          int64     `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"created_at" validate:"required"`
	UpdatedAt   string    `json:"updated_at" validate:"required"`
	AppURL      string    `json:"app_url" validate:"required"`
	Creator     rawAuthor `json:"creator"`
	TodosCount  int       `json:"todos_count"`
}

// In todos the remote `content` field is the title text and the rich-text
// body lives in `description`
type rawTodo struct {
	ID            int64       `json:"id" validate:"required"`
	Content       string      `json:"content" validate:"required"`
	Description   string      `json:"description"`
	CreatedAt     string      `json:"created_at" validate:"required"`
	UpdatedAt     string      `json:"updated_at" validate:"required"`
	AppURL        string      `json:"app_url" validate:"required"`
	Creator       rawAuthor   `json:"creator"`
	Completed     bool        `json:"completed"`
	DueOn         *string     `json:"due_on"`
	CompletedAt   *string     `json:"completed_at"`
	CommentsCount int         `json:"comments_count"`
	Assignees     []rawAuthor `json:"assignees"`
}

func todoListFromRaw(raw json.RawMessage) (models.TodoList, error) {
	l, err := decodeItem[rawTodoList](raw)
	if err != nil {
		return models.TodoList{}, err
	}

	return models.TodoList{
		ID:         l.ID,
		Title:      l.Name,
		Author:     l.Creator.toModel(),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
		URL:        l.AppURL,
		Content:    ToPlainText(l.Description),
		TodosCount: l.TodosCount,
	}, nil
}

func todoFromRaw(raw json.RawMessage) (models.Todo, error) {
	t, err := decodeItem[rawTodo](raw)
	if err != nil {
		return models.Todo{}, err
	}

	todo := models.Todo{
		ID:            t.ID,
		Title:         t.Content,
		Author:        t.Creator.toModel(),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		URL:           t.AppURL,
		Content:       ToPlainText(t.Description),
		Completed:     t.Completed,
		DueOn:         t.DueOn,
		CompletedAt:   t.CompletedAt,
		CommentsCount: t.CommentsCount,
	}

	for _, a := range t.Assignees {
		todo.Assignees = append(todo.Assignees, a.toModel())
	}

	return todo, nil
}

// ListTodoLists returns one page of to-do lists of the project's todoset
func (c *Client) ListTodoLists(ctx context.Context, projectID, todosetID int64, page int) (models.PaginatedResult[models.TodoList], error) {
	path := fmt.Sprintf("buckets/%d/todosets/%d/todolists.json", projectID, todosetID)
	return Paginate(ctx, c, path, page, todoListFromRaw)
}

// ListTodos returns one page of to-do items of one list
func (c *Client) ListTodos(ctx context.Context, projectID, todolistID int64, page int) (models.PaginatedResult[models.Todo], error) {
	path := fmt.Sprintf("buckets/%d/todolists/%d/todos.json", projectID, todolistID)
	return Paginate(ctx, c, path, page, todoFromRaw)
}

// GetTodo returns a single to-do item with assignees
func (c *Client) GetTodo(ctx context.Context, projectID, todoID int64) (models.Todo, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("buckets/%d/todos/%d.json", projectID, todoID), nil)
	if err != nil {
		return models.Todo{}, err
	}

	return todoFromRaw(raw)
}
