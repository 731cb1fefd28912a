// Package raindrop provides a typed client for the Raindrop.io REST API
// (v1), covering the calls the tagging pipeline needs. Every request is
// paced and retried according to the configured policy, so callers see
// only final outcomes.
package raindrop

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

	"github.com/raintag/raintag/internal/retry"
)

// ClientInterface defines the interface for interacting with the Raindrop API
type ClientInterface interface {
	// Tag taxonomy across all collections
	GetTags(ctx context.Context) ([]Tag, error)

	// One page of bookmarks without tags, oldest first
	ListUntagged(ctx context.Context, page, perPage int) ([]Raindrop, error)

	// Single bookmark operations
	GetRaindrop(ctx context.Context, id int64) (*Raindrop, error)
	UpdateTags(ctx context.Context, id int64, tags []string) error
}

// Client provides a high-level interface for interacting with the Raindrop API
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	pacer      *retry.Pacer
}

// NewClient creates a new Raindrop client with the given options
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		pacer:      retry.NewPacer(config.PaceInterval),
	}
}

// GetTags retrieves the tag taxonomy across all collections
func (c *Client) GetTags(ctx context.Context) ([]Tag, error) {
	var result tagsResponse
	if err := c.doRequest(ctx, "GET", "/tags", nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}

	return result.Items, nil
}

// ListUntagged retrieves one page of bookmarks that carry no tags yet.
// Pages are zero-based. A page shorter than perPage is the last one.
func (c *Client) ListUntagged(ctx context.Context, page, perPage int) ([]Raindrop, error) {
	if page < 0 {
		return nil, fmt.Errorf("page must not be negative")
	}
	if perPage < 1 {
		return nil, fmt.Errorf("perPage must be positive")
	}

	path := fmt.Sprintf("/raindrops/%d?search=%s&perpage=%d&page=%d",
		c.config.Collection, url.QueryEscape("notag:true"), perPage, page)

	var result listResponse
	if err := c.doRequest(ctx, "GET", path, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to list untagged bookmarks: %w", err)
	}

	return result.Items, nil
}

// GetRaindrop retrieves a single bookmark by ID
func (c *Client) GetRaindrop(ctx context.Context, id int64) (*Raindrop, error) {
	var result itemResponse
	if err := c.doRequest(ctx, "GET", fmt.Sprintf("/raindrop/%d", id), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get raindrop %d: %w", id, err)
	}

	return &result.Item, nil
}

// UpdateTags replaces the tags of a single bookmark
func (c *Client) UpdateTags(ctx context.Context, id int64, tags []string) error {
	if tags == nil {
		tags = []string{}
	}

	req := &UpdateTagsRequest{Tags: tags}

	var result updateResponse
	if err := c.doRequest(ctx, "PUT", fmt.Sprintf("/raindrop/%d", id), req, &result); err != nil {
		return fmt.Errorf("failed to update tags for raindrop %d: %w", id, err)
	}

	if !result.Result {
		return fmt.Errorf("update for raindrop %d not acknowledged", id)
	}

	return nil
}

// doRequest performs an HTTP request with pacing and retries, and
// unmarshals the JSON response into result on success.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyBytes []byte

	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	requestURL := c.config.BaseURL + path

	return retry.Do(ctx, c.config.Retry, method+" "+path, func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}

		var requestBody io.Reader
		if bodyBytes != nil {
			requestBody = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, requestURL, requestBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range c.config.DefaultHeaders {
			req.Header.Set(key, value)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
		if c.config.UserAgent != "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return &Error{Message: fmt.Sprintf("request failed: %v", err)}
		}

		return c.handleResponse(resp, result)
	})
}

// handleResponse processes the HTTP response and unmarshals JSON if successful
func (c *Client) handleResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			Body:       string(body),
		}

		var errorResponse struct {
			Error        string `json:"error"`
			ErrorMessage string `json:"errorMessage"`
		}
		if json.Unmarshal(body, &errorResponse) == nil {
			switch {
			case errorResponse.ErrorMessage != "":
				apiErr.Message = errorResponse.ErrorMessage
			case errorResponse.Error != "":
				apiErr.Message = errorResponse.Error
			}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}

		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// parseRetryAfter reads a Retry-After header given in seconds. Dates and
// malformed values are ignored, the backoff policy covers those.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}

	return time.Duration(seconds) * time.Second
}
