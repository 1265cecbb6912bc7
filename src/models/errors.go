package models

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// BackendError is an API failure reported by a provider.
type BackendError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API Error from %s: Status=%d, Message=%s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API Error from %s: %s", e.Provider, e.Message)
}

// ConnectionError means the provider endpoint could not be reached.
type ConnectionError struct {
	Provider string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("Connection Error for %s: %v", e.Provider, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// isConnErr reports whether err looks like a transport-level failure.
// Cancellation is not a connection problem even when the HTTP client
// wraps it as one.
func isConnErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
