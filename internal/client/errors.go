package client

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType categorizes a failed node interaction.
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection refused, timeout, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates an HTTP-level error (non-2xx status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the node refused the connection
	ErrTypeConnectionRefused
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// NodeError is an error from talking to a sensor node.
type NodeError struct {
	Type       ErrorType
	Message    string
	StatusCode int // HTTP status code, if applicable
	Err        error
	Retryable  bool
}

func (e *NodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// classifyNetworkError inspects the underlying error chain and picks the
// most specific category.
func classifyNetworkError(message string, err error) *NodeError {
	if os.IsTimeout(err) {
		return &NodeError{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &NodeError{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &NodeError{Type: ErrTypeConnectionRefused, Message: message, Err: err, Retryable: true}
	}

	return &NodeError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *NodeError {
	return classifyNetworkError(message, err)
}

// NewHTTPError creates an HTTP-level error. Server-side statuses are retryable.
func NewHTTPError(statusCode int, message string) *NodeError {
	return &NodeError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *NodeError {
	return &NodeError{Type: ErrTypeParse, Message: message, Err: err, Retryable: false}
}

// IsRetryable reports whether the operation is worth retrying.
func IsRetryable(err error) bool {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Retryable
	}
	return false
}

// IsNetworkError reports whether the error is network-level (including
// timeouts and refused connections).
func IsNetworkError(err error) bool {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Type == ErrTypeNetwork ||
			nodeErr.Type == ErrTypeTimeout ||
			nodeErr.Type == ErrTypeConnectionRefused
	}
	return false
}
