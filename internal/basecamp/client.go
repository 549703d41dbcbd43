package basecamp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/models"
)

const (
	defaultBaseURL       = "https://3.basecampapi.com"
	defaultMaxConcurrent = 5
	defaultTimeout       = 30 * time.Second

	userAgent = "campgate (github.com/nkiryanov/campgate)"
)

type Config struct {
	// Base API URL without the account segment
	// If not set than default basecamp API URL is used
	BaseURL string

	// Maximum simultaneous in-flight requests per client instance
	MaxConcurrent int64

	// HTTP client to use. Default client with 30s timeout if not set
	HTTPClient *http.Client

	Logger logger.Logger
}

// Client is the read-only gateway to the basecamp content API.
// One instance is bound to exactly one credential: the account id is baked
// into the base URL at construction and is never a method parameter, so a
// caller cannot route a request into another account.
type Client struct {
	baseURL     string
	accessToken string

	http   *http.Client
	sem    *semaphore.Weighted
	logger logger.Logger
}

func NewClient(cred models.Credential, cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/") + "/" + cred.AccountID,
		accessToken: cred.AccessToken,
		http:        httpClient,
		sem:         semaphore.NewWeighted(maxConcurrent),
		logger:      log,
	}
}

// Do performs one request against the account-scoped API.
// Non-GET methods are rejected before any network activity or slot
// acquisition. Waiters for a concurrency slot are admitted in FIFO order.
func (c *Client) Do(ctx context.Context, method string, path string, query url.Values) ([]byte, http.Header, error) {
	if method != http.MethodGet {
		return nil, nil, &apperrors.ReadOnlyError{Method: method}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("acquiring request slot: %w", err)
	}
	defer c.sem.Release(1)

	requestsInFlight.Inc()
	defer requestsInFlight.Dec()

	requestURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	resp, err := withRateLimit(ctx, c.logger, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		return c.http.Do(req)
	})
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response for %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, classifyStatus(resp.StatusCode, path)
	}

	return body, resp.Header, nil
}

// Get fetches a single resource and returns the raw JSON body
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	body, _, err := c.Do(ctx, http.MethodGet, path, query)
	return json.RawMessage(body), err
}

// GetRaw fetches a resource and exposes the response headers too.
// Needed by the pagination engine to read the Link cursor header.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, http.Header, error) {
	return c.Do(ctx, http.MethodGet, path, query)
}

func classifyStatus(code int, path string) error {
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, apperrors.ErrNotFound)
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w", path, apperrors.ErrPermissionDenied)
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", path, apperrors.ErrUnauthorized)
	default:
		return &apperrors.StatusError{StatusCode: code, Path: path}
	}
}
