package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/basecamp"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/models"
)

var validate = validator.New()

// gateway is what tool handlers need of the content client
type gateway interface {
	ListProjects(ctx context.Context, page int) (models.PaginatedResult[models.Project], error)
	ProjectTools(ctx context.Context, projectID int64) (models.ProjectTools, error)
	ListMessages(ctx context.Context, projectID, boardID int64, page int) (models.PaginatedResult[models.Message], error)
	GetMessage(ctx context.Context, projectID, messageID int64) (models.Message, error)
	ListTodoLists(ctx context.Context, projectID, todosetID int64, page int) (models.PaginatedResult[models.TodoList], error)
	ListTodos(ctx context.Context, projectID, todolistID int64, page int) (models.PaginatedResult[models.Todo], error)
	GetTodo(ctx context.Context, projectID, todoID int64) (models.Todo, error)
	ListDocuments(ctx context.Context, projectID, vaultID int64, page int) (models.PaginatedResult[models.Document], error)
	GetDocument(ctx context.Context, projectID, documentID int64) (models.Document, error)
	ListCampfireLines(ctx context.Context, projectID, chatID int64, page int) (models.PaginatedResult[models.CampfireLine], error)
	ListAttachments(ctx context.Context, projectID, vaultID int64, page int) (models.PaginatedResult[models.Attachment], error)
}

// tokenResolver is what the registry needs of the token manager
type tokenResolver interface {
	Resolve(ctx context.Context, userID int64) (models.TokenRecord, error)
}

type Tool struct {
	Name        string
	Description string

	run func(ctx context.Context, g gateway, input json.RawMessage) (any, error)
}

// Registry holds the read-only tools exposed to the agent. One Invoke call
// resolves the user's credential, builds a gateway bound to it and runs the
// tool. Failures always come back as a structured ErrorPayload.
type Registry struct {
	resolver  tokenResolver
	clientCfg basecamp.Config
	logger    logger.Logger

	tools map[string]Tool
	names []string

	// swappable in tests
	newGateway func(cred models.Credential) gateway
}

func NewRegistry(resolver tokenResolver, clientCfg basecamp.Config, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNoOp()
	}
	if clientCfg.Logger == nil {
		clientCfg.Logger = log
	}

	r := &Registry{
		resolver:  resolver,
		clientCfg: clientCfg,
		logger:    log,
		tools:     make(map[string]Tool),
	}
	r.newGateway = func(cred models.Credential) gateway {
		return basecamp.NewClient(cred, r.clientCfg)
	}
	r.registerAll()

	return r
}

// Names lists registered tools in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Describe returns the registered tool, ok reports whether it exists
func (r *Registry) Describe(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Invoke runs one tool for one user. The second return value is nil on
// success and carries the classified failure otherwise.
func (r *Registry) Invoke(ctx context.Context, userID int64, name string, input json.RawMessage) (any, *ErrorPayload) {
	tool, ok := r.tools[name]
	if !ok {
		payload := Classify(fmt.Errorf("unknown tool %q: %w", name, apperrors.ErrInvalidInput))
		return nil, &payload
	}

	record, err := r.resolver.Resolve(ctx, userID)
	if err != nil {
		payload := Classify(err)
		return nil, &payload
	}

	g := r.newGateway(models.Credential{AccessToken: record.AccessToken, AccountID: record.AccountID})

	result, err := tool.run(ctx, g, input)
	if err != nil {
		r.logger.Debug("Tool failed", "tool", name, "user_id", userID, "error", err)
		payload := Classify(err)
		return nil, &payload
	}

	return result, nil
}

func (r *Registry) register(tool Tool) {
	r.tools[tool.Name] = tool
	r.names = append(r.names, tool.Name)
}

// decodeInput parses the tool input. Nil or empty input decodes to the
// zero value so optional-only tools can be called bare.
func decodeInput[T any](input json.RawMessage) (T, error) {
	var value T

	if len(input) > 0 {
		if err := json.Unmarshal(input, &value); err != nil {
			return value, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err)
		}
	}

	if err := validate.Struct(value); err != nil {
		return value, fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, err)
	}

	return value, nil
}
