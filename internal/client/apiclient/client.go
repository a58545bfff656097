// Package apiclient is a typed HTTP client for the Reelbase API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// ErrUnauthorized matches any 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Account is returned by register, login, profile update and verification.
type Account struct {
	ID              string  `json:"_id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	IsEmailVerified *bool   `json:"isEmailVerified,omitempty"`
	PendingEmail    *string `json:"pendingEmail,omitempty"`
	Token           string  `json:"token"`
	Message         string  `json:"message,omitempty"`
}

type Profile struct {
	ID              string           `json:"_id"`
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	IsEmailVerified bool             `json:"isEmailVerified"`
	PendingEmail    *string          `json:"pendingEmail,omitempty"`
	Watchlist       []WatchlistEntry `json:"watchlist"`
}

type WatchlistEntry struct {
	MediaType  string    `json:"mediaType"`
	MediaID    string    `json:"mediaId"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// Verification is the body of a successful email verification.
type Verification struct {
	Message string `json:"message"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

// ProfileChanges leaves nil fields untouched on the server.
type ProfileChanges struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: u, http: httpClient}, nil
}

// WithToken returns a copy of c that sends token as a bearer credential.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*Account, error) {
	var out Account
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users/register", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	var out Account
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, changes ProfileChanges) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", changes, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (*Verification, error) {
	var out Verification
	if err := c.do(ctx, http.MethodGet, "/api/users/verify-email/"+url.PathEscape(token), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendVerification returns the server's confirmation message.
func (c *Client) ResendVerification(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users/resend-verification", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Watchlist(ctx context.Context) ([]WatchlistEntry, error) {
	var out []WatchlistEntry
	if err := c.do(ctx, http.MethodGet, "/api/users/watchlist", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToWatchlist(ctx context.Context, mediaType, mediaID, title, posterPath string) ([]WatchlistEntry, error) {
	var out []WatchlistEntry
	body := map[string]string{"mediaType": mediaType, "mediaId": mediaID, "title": title}
	if posterPath != "" {
		body["poster_path"] = posterPath
	}
	if err := c.do(ctx, http.MethodPost, "/api/users/watchlist", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RemoveFromWatchlist(ctx context.Context, mediaID string) ([]WatchlistEntry, error) {
	var out []WatchlistEntry
	if err := c.do(ctx, http.MethodDelete, "/api/users/watchlist/"+url.PathEscape(mediaID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		if method != http.MethodGet {
			req.Header.Set("Idempotency-Key", uuid.NewString())
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("apiclient: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &msg) != nil || msg.Message == "" {
			msg.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}
