// Package upstream classifies failures of outgoing calls to third-party APIs.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

var (
	ErrTimeout = errors.New("timeout")
	ErrNetwork = errors.New("network error")
)

// StatusError is a non-2xx answer from an upstream API
type StatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http error: status=%d body=%s", e.Service, e.Status, e.Body)
}

// NewStatusError creates a StatusError
func NewStatusError(service string, status int, body []byte) *StatusError {
	return &StatusError{Service: service, Status: status, Body: string(body)}
}

// Status returns the upstream status code carried by err, or 0.
func Status(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// Classify wraps a transport error as timeout, network or plain request error.
func Classify(ctx context.Context, service string, err error) error {
	if isTimeoutError(ctx, err) {
		return fmt.Errorf("%s %w: %w", service, ErrTimeout, err)
	}
	if isNetworkError(err) {
		return fmt.Errorf("%s %w: %w", service, ErrNetwork, err)
	}
	return fmt.Errorf("%s request error: %w", service, err)
}

// IsTransport reports whether err came from Classify as a timeout or network failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrNetwork)
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
