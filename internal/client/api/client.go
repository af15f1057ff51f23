// Package api is the HTTP client for the ModelVault server. It speaks the
// server's multipart/query-string dialect and maps response statuses back
// onto the shared sentinel errors.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelvault/modelvault/internal/common"
)

// Client carries the base URL, the shared http.Client, and the bearer
// token attached to every authorized request.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken stores the bearer token used for authorized requests. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) authorize(req *http.Request) error {
	token := c.Token()
	if token == "" {
		return common.ErrNotAuthenticated
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusError maps a non-2xx response onto the sentinel errors so callers
// can errors.Is against the same values the local store returns.
func statusError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, common.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, common.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, common.ErrLoginAlreadyExists)
	case http.StatusBadRequest:
		switch {
		case strings.Contains(msg, "version"):
			return fmt.Errorf("%s: %w", msg, common.ErrInvalidVersion)
		case strings.Contains(msg, "empty"):
			return fmt.Errorf("%s: %w", msg, common.ErrEmptyPayload)
		default:
			return fmt.Errorf("server rejected request: %s", msg)
		}
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
}
