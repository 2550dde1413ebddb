package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medipal-health/appstate-service/internal/config"
	"github.com/medipal-health/appstate-service/internal/telemetry"
)

var (
	ErrRequest         = errors.New("backend request failed")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidResponse = errors.New("invalid response from backend")
)

// TokenSource supplies the bearer token attached to every request.
// *session.Session satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to the MediPal backend API. All request/response bodies are
// JSON; enum fields are validated while decoding so malformed payloads are
// rejected at this boundary.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *telemetry.Metrics
}

// NewClient creates a backend API client.
func NewClient(cfg config.APIConfig, tokens TokenSource, metrics *telemetry.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		metrics:    metrics,
	}
}

// do runs one JSON request against the backend. A non-nil out is decoded
// from the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordAPIRequest(ctx, method, path, resp.StatusCode, float64(time.Since(start).Milliseconds()))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Backend request %s %s failed: %d - %s", method, path, resp.StatusCode, string(respBody))
		return fmt.Errorf("%w: status %d", ErrRequest, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
