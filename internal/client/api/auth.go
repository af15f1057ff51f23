package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates an account and returns the issued token. The token is
// also stored on the client so subsequent calls are authorized.
func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	return c.authRequest(ctx, "/api/auth/register", login, password)
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	return c.authRequest(ctx, "/api/auth/login", login, password)
}

func (c *Client) authRequest(ctx context.Context, path, login, password string) (string, error) {
	payload, err := json.Marshal(credentials{Login: login, Password: password})
	if err != nil {
		return "", fmt.Errorf("error encoding credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("error decoding token response: %w", err)
	}
	c.SetToken(body.Token)
	return body.Token, nil
}
