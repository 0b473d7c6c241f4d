// Package identity talks to the external identity provider for signup,
// login and profile lookup. Token verification itself happens locally in
// pkg/token; this client is only used by the auth endpoints.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/attendly/backend/pkg/provider"
)

const providerName = "identity"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Config struct {
	URL    string
	APIKey string
	// Timeout bounds every call so a slow provider never hangs a request
	// slot. Defaults to 10s.
	Timeout time.Duration
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Session struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}
	return c.postSession(ctx, "/auth/v1/signup", payload, "signup")
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	return c.postSession(ctx, "/auth/v1/token?grant_type=password", payload, "login")
}

// GetUser resolves a bearer token to the identity behind it.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "get_user", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "get_user", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "get_user", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, provider.NewError(provider.InvalidContent, providerName, "get_user",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(provider.Unavailable, providerName, "get_user",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, provider.NewError(provider.ParseError, providerName, "get_user", err)
	}

	return &user, nil
}

func (c *Client) postSession(ctx context.Context, path string, payload any, op string) (*Session, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, provider.NewError(provider.InvalidContent, providerName, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, op, err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, provider.NewError(provider.InvalidContent, providerName, op,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(provider.Unavailable, providerName, op,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, provider.NewError(provider.ParseError, providerName, op, err)
	}

	return &session, nil
}
