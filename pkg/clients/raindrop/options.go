package raindrop

import (
	"net/http"
	"time"

	"github.com/raintag/raintag/internal/retry"
)

// ClientOption represents an option for configuring the Raindrop client
type ClientOption func(*ClientConfig)

// CollectionAll is the pseudo-collection covering every bookmark.
const CollectionAll int64 = -1

// ClientConfig holds the configuration for the Raindrop client
type ClientConfig struct {
	BaseURL        string
	Token          string // Raindrop.io test token, sent as a Bearer header
	Collection     int64  // Collection listed by ListUntagged
	Timeout        time.Duration
	Retry          retry.Policy
	PaceInterval   time.Duration // Minimum spacing between successive API calls
	DefaultHeaders map[string]string
	HTTPClient     *http.Client
	UserAgent      string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "https://api.raindrop.io/rest/v1",
		Collection:   CollectionAll,
		Timeout:      15 * time.Second,
		Retry:        retry.DefaultPolicy(),
		PaceInterval: 500 * time.Millisecond,
		DefaultHeaders: map[string]string{
			"Content-Type": "application/json",
		},
		UserAgent: "raintag/1.0",
	}
}

// WithBaseURL sets the base URL for the Raindrop API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithToken sets the API token used for Bearer authentication
func WithToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
	}
}

// WithCollection restricts ListUntagged to one collection
func WithCollection(id int64) ClientOption {
	return func(c *ClientConfig) {
		c.Collection = id
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithRetryPolicy sets the retry configuration
func WithRetryPolicy(policy retry.Policy) ClientOption {
	return func(c *ClientConfig) {
		c.Retry = policy
	}
}

// WithPaceInterval sets the minimum spacing between successive API calls
func WithPaceInterval(interval time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.PaceInterval = interval
	}
}

// WithHeader adds a default header to all requests
func WithHeader(key, value string) ClientOption {
	return func(c *ClientConfig) {
		if c.DefaultHeaders == nil {
			c.DefaultHeaders = make(map[string]string)
		}
		c.DefaultHeaders[key] = value
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = httpClient
	}
}

// WithUserAgent sets a custom user agent
func WithUserAgent(userAgent string) ClientOption {
	return func(c *ClientConfig) {
		c.UserAgent = userAgent
	}
}
