// Package client is the application-side controller layer for private
// spaces. It wraps the HTTP API in typed operations, normalizes wire
// shapes into canonical structs at one boundary, and keeps the small
// amount of local state the UI needs (the space list cache and feed
// accumulators). The server stays authoritative for every permission
// and lifecycle rule; the client only mirrors them for usability.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Session holds the authenticated identity for a client. It replaces
// any notion of ambient global auth state: a Client owns exactly one
// Session and every request carries its token.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

// DisplayName returns the name shown next to the user's content.
func (s Session) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Email
	}
	return name
}

// Client talks to the private spaces API on behalf of one session.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	session Session
	spaces  []Space // last fetched space list, pruned on dissolve
}

// New creates a client for the API at baseURL. The session may be
// empty; Login and VerifyOTP populate it.
func New(baseURL string, session Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		session: session,
	}
}

// SetSession replaces the client's session, e.g. after a token refresh.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Session returns the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// do sends one API request and decodes the response into out (which
// may be nil). Non-2xx responses are turned into typed errors carrying
// the server's message verbatim.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Session().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// errorFromResponse maps a failed response to the error taxonomy.
// The server always reports errors as {"message": "..."}.
func errorFromResponse(status int, data []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(data))
	}
	if payload.Message == "" {
		payload.Message = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthorizationError{StatusCode: status, Message: payload.Message}
	case http.StatusNotFound:
		return &NotFoundError{Message: payload.Message}
	case http.StatusConflict:
		return &DuplicateError{Message: payload.Message}
	default:
		return &APIError{StatusCode: status, Message: payload.Message}
	}
}
