package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace-messaging/models"
)

// Client reads the caller's aggregates from the messaging API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the API rooted at baseURL
// (e.g. https://api.example.com/api/v1) authenticating with token
func NewClient(baseURL, token string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: time.Second * 10}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    hc,
	}
}

// APIError is a non-2xx answer from the server
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messaging api: %d %s", e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &APIError{Code: resp.StatusCode, Message: env.Error}
	}
	return json.Unmarshal(env.Data, out)
}

// Snapshot fetches conversations, notifications and the unread count
func (c *Client) Snapshot(ctx context.Context) (*models.SyncSnapshot, error) {
	var snap models.SyncSnapshot
	if err := c.get(ctx, "/sync", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Conversations fetches the inbox
func (c *Client) Conversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var convs []models.ConversationSummary
	if err := c.get(ctx, "/conversations", &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// UnreadCount fetches the unread notification count
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var resp struct {
		UnreadCount int64 `json:"unread_count"`
	}
	if err := c.get(ctx, "/notifications/unread-count", &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}
