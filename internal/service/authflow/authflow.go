package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/logger"
	"github.com/nkiryanov/campgate/internal/models"
)

const (
	defaultAuthBaseURL = "https://launchpad.37signals.com"
	defaultTimeout     = 30 * time.Second

	// Only accounts of this product line are usable
	productBC3 = "bc3"

	// Fallback lifetime when the token endpoint omits expires_in
	defaultExpiresIn = 7200 * time.Second

	userAgent = "campgate (github.com/nkiryanov/campgate)"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Launchpad base URL, default is used if empty
	AuthBaseURL string

	// Secret to sign the oauth state parameter
	StateSecret string

	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client drives the authorization-code flow against the launchpad
// endpoints: authorize URL, code exchange, refresh and remote revocation.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	baseURL      string
	stateSecret  string

	http   *http.Client
	logger logger.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client credentials must not be empty")
	}

	baseURL := cfg.AuthBaseURL
	if baseURL == "" {
		baseURL = defaultAuthBaseURL
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
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		stateSecret:  cfg.StateSecret,
		http:         httpClient,
		logger:       log,
	}, nil
}

// AuthorizeURL builds the user-facing authorization URL.
// The remote requires type=web_server on every authorization call.
func (c *Client) AuthorizeURL(state string) string {
	query := url.Values{
		"type":         []string{"web_server"},
		"client_id":    []string{c.clientID},
		"redirect_uri": []string{c.redirectURI},
		"state":        []string{state},
	}

	return c.baseURL + "/authorization/new?" + query.Encode()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Exchange trades an authorization code for tokens and resolves the user's
// identity and account. Users without any bc3 account cannot be set up.
func (c *Client) Exchange(ctx context.Context, code string) (models.TokenRecord, error) {
	form := url.Values{
		"type":          []string{"web_server"},
		"client_id":     []string{c.clientID},
		"client_secret": []string{c.clientSecret},
		"redirect_uri":  []string{c.redirectURI},
		"code":          []string{code},
	}

	token, err := c.postToken(ctx, form)
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("code exchange failed: %w", err)
	}

	identity, err := c.fetchIdentity(ctx, token.AccessToken)
	if err != nil {
		return models.TokenRecord{}, err
	}

	account, err := firstBC3Account(identity)
	if err != nil {
		return models.TokenRecord{}, err
	}

	return models.TokenRecord{
		UserID:       identity.Identity.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(expiresIn(token)),
		AccountID:    fmt.Sprintf("%d", account.ID),
		Email:        identity.Identity.EmailAddress,
	}, nil
}

// Refresh exchanges a refresh token for a rotated pair.
// The old refresh token is invalid from here on, succeed or not.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (access string, refresh string, expiresAt time.Time, err error) {
	form := url.Values{
		"type":          []string{"refresh"},
		"client_id":     []string{c.clientID},
		"client_secret": []string{c.clientSecret},
		"refresh_token": []string{refreshToken},
	}

	token, err := c.postToken(ctx, form)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("token refresh failed: %w", err)
	}

	// Some refresh responses omit the rotated refresh token, the old one
	// stays valid in that case
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	return token.AccessToken, token.RefreshToken, time.Now().Add(expiresIn(token)), nil
}

// Revoke invalidates the token remotely. A 401 means the token is dead
// already and counts as success.
func (c *Client) Revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/authorization.json", nil)
	if err != nil {
		return fmt.Errorf("building revoke request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusUnauthorized {
		return &apperrors.StatusError{StatusCode: resp.StatusCode, Path: "authorization.json"}
	}

	return nil
}

func (c *Client) postToken(ctx context.Context, form url.Values) (tokenResponse, error) {
	var token tokenResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authorization/token", strings.NewReader(form.Encode()))
	if err != nil {
		return token, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return token, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		// Drain the body without surfacing it: failed token exchanges may
		// echo token material back
		_, _ = io.Copy(io.Discard, resp.Body)
		return token, &apperrors.StatusError{StatusCode: resp.StatusCode, Path: "authorization/token"}
	}

	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return token, fmt.Errorf("decoding token response: %w", err)
	}
	if token.AccessToken == "" {
		return token, errors.New("token response has no access token")
	}

	return token, nil
}

type identityResponse struct {
	Identity struct {
		ID           int64  `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"identity"`
	Accounts []identityAccount `json:"accounts"`
}

type identityAccount struct {
	Product string `json:"product"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
}

func (c *Client) fetchIdentity(ctx context.Context, accessToken string) (identityResponse, error) {
	var identity identityResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/authorization.json", nil)
	if err != nil {
		return identity, fmt.Errorf("building identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return identity, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return identity, &apperrors.StatusError{StatusCode: resp.StatusCode, Path: "authorization.json"}
	}

	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return identity, fmt.Errorf("decoding identity response: %w", err)
	}

	return identity, nil
}

// firstBC3Account picks the first eligible account. Multi-account routing
// is out of scope, the first one wins.
func firstBC3Account(identity identityResponse) (identityAccount, error) {
	for _, account := range identity.Accounts {
		if account.Product == productBC3 {
			return account, nil
		}
	}

	return identityAccount{}, apperrors.ErrNoAccount
}

func expiresIn(token tokenResponse) time.Duration {
	if token.ExpiresIn <= 0 {
		return defaultExpiresIn
	}
	return time.Duration(token.ExpiresIn) * time.Second
}
