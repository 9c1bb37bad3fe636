package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 10 * time.Second
)

// Status is the node's / document.
type Status struct {
	ID          string  `json:"id"`
	IP          string  `json:"ip"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Light       uint32  `json:"light"`
	Fresh       bool    `json:"fresh"`
}

// Client talks to one sensor node over HTTP.
type Client struct {
	// BaseURL is the node's base URL (e.g. "http://192.168.1.42:80")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff
	MaxRetryDelay time.Duration
}

// NewClient creates a client for the node at ip:port.
func NewClient(ip string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", ip, port))
}

// NewClientWithURL creates a client with a full base URL.
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:       baseURL,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks the node is reachable and responding.
func (c *Client) Ping() error {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/id")
	if err != nil {
		return NewNetworkError("node unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
	return nil
}

// GetStatus retrieves the node's current reading and configuration.
func (c *Client) GetStatus() (*Status, error) {
	var status *Status
	err := c.withRetry(func() error {
		s, err := c.getStatusAttempt()
		if err != nil {
			return err
		}
		status = s
		return nil
	})
	return status, err
}

func (c *Client) getStatusAttempt() (*Status, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/")
	if err != nil {
		return nil, NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, NewParseError("failed to parse JSON response", err)
	}
	return &status, nil
}

// GetID retrieves the node identifier.
func (c *Client) GetID() (string, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/id")
	if err != nil {
		return "", NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", NewParseError("failed to parse JSON response", err)
	}
	return body.ID, nil
}

// SetConfig sends field/value updates to the node. The node rejects unknown
// field names, so the error message carries the response body on failure.
func (c *Client) SetConfig(fields map[string]string) error {
	if len(fields) == 0 {
		return NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return NewParseError("failed to encode update", err)
	}

	return c.withRetry(func() error {
		resp, err := c.HTTPClient.Post(c.BaseURL+"/set", "application/json", bytes.NewReader(payload))
		if err != nil {
			return NewNetworkError("POST request failed", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return NewHTTPError(resp.StatusCode,
				fmt.Sprintf("update failed with status %d: %s", resp.StatusCode, string(body)))
		}
		return nil
	})
}

// Reset asks the node to restart. The node acknowledges before restarting,
// so a successful return does not mean the node is back up yet.
func (c *Client) Reset() error {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/reset")
	if err != nil {
		return NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}
	return nil
}

// withRetry runs fn with exponential backoff, giving up on the first
// non-retryable error.
func (c *Client) withRetry(fn func() error) error {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}
	return lastErr
}
