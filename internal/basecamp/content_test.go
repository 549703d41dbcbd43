package basecamp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/campgate/internal/models"
)

func rawDocumentJSON(content string) json.RawMessage {
	doc := map[string]any{
		"id":         7,
		"title":      "Plan",
		"content":    content,
		"created_at": "2025-06-01T10:00:00Z",
		"updated_at": "2025-06-01T11:00:00Z",
		"app_url":    "https://3.basecamp.com/42/buckets/1/documents/7",
		"creator":    map[string]any{"name": "Victor", "email_address": "victor@example.com"},
	}
	raw, _ := json.Marshal(doc)
	return raw
}

func Test_DocumentFromRaw(t *testing.T) {
	t.Parallel()

	t.Run("full document keeps whole content", func(t *testing.T) {
		long := strings.Repeat("word ", 300)

		doc, err := documentFromRaw(rawDocumentJSON("<p>" + long + "</p>"))

		require.NoError(t, err)
		assert.Equal(t, "Plan", doc.Title)
		assert.Equal(t, "Victor", doc.Author.Name)
		assert.False(t, doc.Truncated)
		assert.Greater(t, len(doc.Content), documentPreviewChars)
	})

	t.Run("summary cuts to preview length", func(t *testing.T) {
		long := strings.Repeat("я", 800)

		doc, err := documentSummaryFromRaw(rawDocumentJSON(long))

		require.NoError(t, err)
		assert.True(t, doc.Truncated)
		assert.Len(t, []rune(doc.Content), documentPreviewChars, "preview counts characters, not bytes")
	})

	t.Run("short summary still flags truncation", func(t *testing.T) {
		doc, err := documentSummaryFromRaw(rawDocumentJSON("short"))

		require.NoError(t, err)
		assert.True(t, doc.Truncated, "listings always point at get_document for full text")
		assert.Equal(t, "short", doc.Content)
	})

	t.Run("missing required field fails", func(t *testing.T) {
		_, err := documentFromRaw(json.RawMessage(`{"id": 7, "content": "no title"}`))

		assert.Error(t, err)
	})
}

func Test_ProjectTools(t *testing.T) {
	t.Parallel()

	project := map[string]any{
		"id":         1,
		"name":       "Launch",
		"status":     "active",
		"created_at": "2025-06-01T10:00:00Z",
		"updated_at": "2025-06-01T11:00:00Z",
		"app_url":    "https://3.basecamp.com/42/projects/1",
		"creator":    map[string]any{"name": "Victor", "email_address": "victor@example.com"},
		"dock": []map[string]any{
			{"id": 11, "name": "message_board", "enabled": true},
			{"id": 12, "name": "todoset", "enabled": true},
			{"id": 13, "name": "vault", "enabled": false},
			{"id": 14, "name": "schedule", "enabled": true},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/42/projects/1.json", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(project))
	}))
	t.Cleanup(server.Close)

	client := NewClient(models.Credential{AccessToken: "tok", AccountID: "42"}, Config{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})

	tools, err := client.ProjectTools(t.Context(), 1)

	require.NoError(t, err)
	assert.Equal(t, "Launch", tools.ProjectName)

	require.NotNil(t, tools.MessageBoardID)
	assert.Equal(t, int64(11), *tools.MessageBoardID)
	require.NotNil(t, tools.TodosetID)
	assert.Equal(t, int64(12), *tools.TodosetID)
	require.NotNil(t, tools.VaultID, "disabled tools still expose their id")
	assert.Equal(t, int64(13), *tools.VaultID)
	assert.Nil(t, tools.ChatID, "absent dock entries stay nil")

	assert.False(t, tools.Tools["vault"].Enabled)
	assert.Contains(t, tools.Tools, "schedule", "unknown dock entries are kept in the map")

	t.Run("same payload as project envelope", func(t *testing.T) {
		project, err := client.GetProject(t.Context(), 1)

		require.NoError(t, err)
		assert.Equal(t, int64(1), project.ID)
		assert.Equal(t, "Launch", project.Title)
		assert.Equal(t, "active", project.Status)
		assert.Equal(t, "Victor", project.Author.Name)
	})
}
