package stt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenProvider supplies the credential used to authenticate the socket.
// It is consulted exactly once per session start.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken adapts a fixed API key, for local development.
type StaticToken string

// Token returns the key.
func (t StaticToken) Token(ctx context.Context) (string, error) {
	if t == "" {
		return "", &TokenError{Err: errors.New("empty api key")}
	}
	return string(t), nil
}

// TokenClient fetches a short-lived key from the token endpoint.
type TokenClient struct {
	url        string
	httpClient *http.Client
}

// NewTokenClient creates a token client for the given endpoint URL.
func NewTokenClient(url string) *TokenClient {
	return NewTokenClientWithHTTP(url, &http.Client{Timeout: 10 * time.Second})
}

// NewTokenClientWithHTTP creates a token client with a custom HTTP client.
func NewTokenClientWithHTTP(url string, client *http.Client) *TokenClient {
	return &TokenClient{url: url, httpClient: client}
}

// Token POSTs to the endpoint and returns the issued key.
func (c *TokenClient) Token(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, nil)
	if err != nil {
		return "", &TokenError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TokenError{Err: fmt.Errorf("token request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &TokenError{Err: fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))}
	}

	var payload struct {
		APIKey string `json:"apiKey"`
		Token  string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &TokenError{Err: fmt.Errorf("parse response: %w", err)}
	}

	key := payload.APIKey
	if key == "" {
		key = payload.Token
	}
	if key == "" {
		return "", &TokenError{Err: errors.New("response missing apiKey")}
	}
	return key, nil
}
