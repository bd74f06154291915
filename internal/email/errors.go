package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ErrNotConfigured is returned when no API key or sender address is set.
var ErrNotConfigured = errors.New("email: sender is not configured")

// APIError is a non-2xx response from the email API.
type APIError struct {
	StatusCode int
	Body       string
	Retryable  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("email api returned status %d: %s", e.StatusCode, e.Body)
}

func newAPIError(status int, body string) *APIError {
	return &APIError{
		StatusCode: status,
		Body:       body,
		Retryable:  status == http.StatusTooManyRequests || status >= http.StatusInternalServerError,
	}
}

// Transport error codes.
const (
	CodeConnReset    = "ECONNRESET"
	CodeNotFound     = "ENOTFOUND"
	CodeTimedOut     = "ETIMEDOUT"
	CodeConnRefused  = "ECONNREFUSED"
	CodeDNSTemporary = "EAI_AGAIN"
)

// TransportError is a network failure reaching the email API.
type TransportError struct {
	Code string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "email transport error " + e.Code
	}
	return fmt.Sprintf("email transport error %s: %v", e.Code, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyTransport wraps network failures in a *TransportError. Other
// errors are returned unchanged.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if code := transportCode(err); code != "" {
		return &TransportError{Code: code, Err: err}
	}
	return err
}

func transportCode(err error) string {
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return CodeConnReset
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnRefused
	case errors.As(err, &dnsErr):
		if dnsErr.IsTemporary || dnsErr.IsTimeout {
			return CodeDNSTemporary
		}
		return CodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, syscall.ETIMEDOUT):
		return CodeTimedOut
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimedOut
	}
	return ""
}
