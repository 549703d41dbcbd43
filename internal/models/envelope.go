package models

// Normalized content envelopes. Field names are ours, independent of the
// raw basecamp payloads: a list's display name becomes Title, a rich-text
// field becomes markdown Content, app_url becomes URL, creator becomes Author.

type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Project struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      Author `json:"author"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// DockTool is one entry of a project's dock: an internal sub-tool id with
// its enabled flag. Dock entries are keyed by Name, values like
// "message_board", "todoset", "vault", "chat".
type DockTool struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// ProjectTools is the dock of one project flattened for callers.
type ProjectTools struct {
	ProjectID      int64               `json:"project_id"`
	ProjectName    string              `json:"project_name"`
	MessageBoardID *int64              `json:"message_board_id"`
	TodosetID      *int64              `json:"todoset_id"`
	VaultID        *int64              `json:"vault_id"`
	ChatID         *int64              `json:"chat_id"`
	Tools          map[string]DockTool `json:"tools"`
}

type Message struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Author       Author `json:"author"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	URL          string `json:"url"`
	Content      string `json:"content"`
	RepliesCount int    `json:"replies_count"`
}

type TodoList struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Author     Author `json:"author"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	TodosCount int    `json:"todos_count"`
}

type Todo struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Author        Author   `json:"author"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	URL           string   `json:"url"`
	Content       string   `json:"content"`
	Completed     bool     `json:"completed"`
	DueOn         *string  `json:"due_on"`
	CompletedAt   *string  `json:"completed_at"`
	CommentsCount int      `json:"comments_count"`
	Assignees     []Author `json:"assignees,omitempty"`
}

type Document struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    Author `json:"author"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	URL       string `json:"url"`
	Content   string `json:"content"`

	// Truncated is set on list responses only: their content is cut to the
	// first 500 characters, full text comes from the single-document fetch.
	Truncated bool `json:"truncated,omitempty"`
}

type CampfireLine struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    Author `json:"author"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	URL       string `json:"url"`
	Content   string `json:"content"`
}

// Attachment is metadata only. Content is always empty and binary data is
// never fetched; DownloadURL is returned as a plain string.
type Attachment struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Author      Author `json:"author"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	ByteSize    int64  `json:"byte_size"`
	DownloadURL string `json:"download_url"`
}
