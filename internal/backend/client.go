// Package backend is a client for the hosted auth/database service that owns
// user accounts, the credits ledger, and the upload history.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnauthorized indicates the session token was missing, expired, or not
// accepted by the auth backend.
var ErrUnauthorized = errors.New("unauthorized")

// User is the identity behind a session token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Upload is one row of a user's transcription history.
type Upload struct {
	ID        int64     `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	FileName  string    `json:"file_name"`
	Duration  float64   `json:"duration"`
	Language  string    `json:"language"`
	SRTURL    string    `json:"srt_url"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Stats summarizes platform-wide activity.
type Stats struct {
	FilesTranscribed int `json:"files_transcribed"`
	ActiveUsers      int `json:"active_users"`
}

// Client talks to the hosted backend's auth and REST surfaces. Construct one
// at startup and inject it where needed; there is no package-level instance.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a backend client. An empty baseURL yields a client whose
// calls all fail with a configuration error, which keeps protected routes
// failing closed when the backend is not configured.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

func (c *Client) configured() error {
	if c.baseURL == "" {
		return errors.New("backend not configured")
	}
	return nil
}

// UserFromToken resolves a session token to its user. Fails closed: any
// non-200 answer is ErrUnauthorized.
func (c *Client) UserFromToken(ctx context.Context, token string) (*User, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthorized
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, ErrUnauthorized
	}
	return &u, nil
}

// CreditsRemaining returns the user's remaining transcription credits.
func (c *Client) CreditsRemaining(ctx context.Context, userID string) (int, error) {
	if err := c.configured(); err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("id", "eq."+userID)
	q.Set("select", "credits_remaining")

	var rows []struct {
		CreditsRemaining int `json:"credits_remaining"`
	}
	if err := c.get(ctx, "/rest/v1/user_credits?"+q.Encode(), &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].CreditsRemaining, nil
}

// Uploads returns the user's upload history, newest first.
func (c *Client) Uploads(ctx context.Context, userID string) ([]Upload, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")

	var rows []Upload
	if err := c.get(ctx, "/rest/v1/uploads?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertUpload appends one row to the upload history.
func (c *Client) InsertUpload(ctx context.Context, up Upload) error {
	if err := c.configured(); err != nil {
		return err
	}

	body, err := json.Marshal(up)
	if err != nil {
		return fmt.Errorf("encode upload row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/uploads", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.restHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("insert upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

// Stats counts total uploads and distinct uploading users.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/v1/uploads?select=user_id", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.restHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("stats lookup: status %d", resp.StatusCode)
	}

	var rows []struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode stats rows: %w", err)
	}

	users := make(map[string]bool, len(rows))
	for _, r := range rows {
		users[r.UserID] = true
	}

	total := len(rows)
	// Prefer the exact count header when the row set was truncated.
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if idx := strings.LastIndex(cr, "/"); idx >= 0 {
			if n, err := strconv.Atoi(cr[idx+1:]); err == nil {
				total = n
			}
		}
	}

	return &Stats{FilesTranscribed: total, ActiveUsers: len(users)}, nil
}

func (c *Client) restHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.restHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
