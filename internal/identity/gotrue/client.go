// Package gotrue is a client for the auth provider's GoTrue-compatible REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"church-portal/internal/identity/domain"
)

const defaultTimeout = 10 * time.Second

// Client calls /auth/v1 endpoints with the project's anon key.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient returns a client for the project at baseURL (e.g. https://xyz.supabase.co).
// timeout <= 0 selects a 10s default.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type userPayload struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        time.Time      `json:"created_at"`
}

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *userPayload `json:"user"`
}

type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorPayload) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// GetUser validates accessToken with the provider and returns its identity.
// A rejected token yields domain.ErrUnauthenticated.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	if accessToken == "" {
		return nil, domain.ErrUnauthenticated
	}
	var u userPayload
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &u)
	if err != nil {
		if isAuthStatus(status) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if u.ID == "" {
		return nil, domain.ErrUnauthenticated
	}
	id := u.toIdentity()
	return &id, nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Tokens, error) {
	body := map[string]string{"email": email, "password": password}
	var s sessionPayload
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &s); err != nil {
		return nil, err
	}
	return s.toTokens()
}

// SignUp creates an identity carrying attrs as user metadata. When the project requires
// email confirmation the returned Tokens has empty token fields.
func (c *Client) SignUp(ctx context.Context, email, password string, attrs domain.Attributes) (*domain.Tokens, error) {
	data := map[string]string{"name": attrs.Name, "role": attrs.Role}
	if attrs.ChurchID != "" {
		data["church_id"] = attrs.ChurchID
	}
	body := map[string]any{"email": email, "password": password, "data": data}

	var raw json.RawMessage
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &raw); err != nil {
		return nil, err
	}
	var s sessionPayload
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("gotrue: decode signup: %w", err)
	}
	if s.AccessToken != "" {
		return s.toTokens()
	}
	var u userPayload
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("gotrue: decode signup user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("gotrue: signup response has no user")
	}
	return &domain.Tokens{Identity: u.toIdentity()}, nil
}

// Refresh exchanges a refresh token for a new session. A revoked or reused refresh token
// yields domain.ErrUnauthenticated.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Tokens, error) {
	if refreshToken == "" {
		return nil, domain.ErrUnauthenticated
	}
	body := map[string]string{"refresh_token": refreshToken}
	var s sessionPayload
	status, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &s)
	if err != nil {
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return s.toTokens()
}

// SignOut revokes the provider session behind accessToken. An already invalid token is not an error.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	status, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
	if err != nil && isAuthStatus(status) {
		return nil
	}
	return err
}

// do sends one request. It returns the HTTP status (0 on transport failure) and a classified error.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) (int, error) {
	if c.BaseURL == "" || c.APIKey == "" {
		return 0, fmt.Errorf("%w: auth provider not configured", domain.ErrBackendUnavailable)
	}
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, classify(resp.StatusCode, b)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, fmt.Errorf("gotrue: decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// classify maps a non-2xx response to a credential error or backend unavailability.
func classify(status int, body []byte) error {
	if status >= 500 {
		return fmt.Errorf("%w: status=%d", domain.ErrBackendUnavailable, status)
	}
	var p errorPayload
	_ = json.Unmarshal(body, &p)
	text := p.text()
	lower := strings.ToLower(text + " " + p.ErrorCode + " " + p.Error)

	reason := domain.ReasonInvalidInput
	switch {
	case status == http.StatusTooManyRequests || strings.Contains(lower, "rate limit"):
		reason = domain.ReasonRateLimited
	case strings.Contains(lower, "email_not_confirmed") || strings.Contains(lower, "email not confirmed"):
		reason = domain.ReasonEmailNotConfirmed
	case strings.Contains(lower, "already registered") || strings.Contains(lower, "user_already_exists") || strings.Contains(lower, "email_exists"):
		reason = domain.ReasonAlreadyRegistered
	case strings.Contains(lower, "weak_password") || strings.Contains(lower, "password should be"):
		reason = domain.ReasonWeakPassword
	case strings.Contains(lower, "invalid_credentials") || strings.Contains(lower, "invalid login credentials") || strings.Contains(lower, "invalid_grant"):
		reason = domain.ReasonInvalidCredentials
	}
	return &domain.CredentialError{Reason: reason, Detail: text}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func (u userPayload) toIdentity() domain.Identity {
	return domain.Identity{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		Attributes: domain.Attributes{
			Name:     metaString(u.UserMetadata, "name"),
			Role:     metaString(u.UserMetadata, "role"),
			ChurchID: metaString(u.UserMetadata, "church_id"),
		},
		CreatedAt: u.CreatedAt,
	}
}

func (s sessionPayload) toTokens() (*domain.Tokens, error) {
	if s.AccessToken == "" || s.User == nil || s.User.ID == "" {
		return nil, fmt.Errorf("gotrue: incomplete session in response")
	}
	t := &domain.Tokens{
		Identity:     s.User.toIdentity(),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		t.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	case s.ExpiresIn > 0:
		t.ExpiresAt = time.Now().UTC().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return t, nil
}

func metaString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
