package api

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
)

// Reason classifies a failed gateway call. The UI decides what to do with a
// failure (redirect to login, show a message, roll back an optimistic write)
// from the reason alone.
type Reason string

const (
	ReasonUnauthorized Reason = "unauthorized"
	ReasonNotFound     Reason = "not_found"
	ReasonValidation   Reason = "validation"
	ReasonNetwork      Reason = "network"
	ReasonUnknown      Reason = "unknown"
)

// Error is a classified gateway failure.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

// ReasonOf extracts the classification from err, defaulting to unknown for
// errors that did not come out of the gateway.
func ReasonOf(err error) Reason {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ReasonUnknown
}

// classifyStatus maps a non-2xx HTTP response to a gateway error. The body,
// when present, is the server's own message and wins over the fallback.
func classifyStatus(code int, body string) *Error {
	var reason Reason
	var fallback string
	switch {
	case code == 401 || code == 403:
		reason = ReasonUnauthorized
		fallback = "authentication required"
	case code == 404:
		reason = ReasonNotFound
		fallback = "not found"
	case code == 400 || code == 422:
		reason = ReasonValidation
		fallback = "request rejected"
	default:
		reason = ReasonUnknown
		fallback = "unexpected server error"
	}

	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = fallback
	}
	return &Error{Reason: reason, Message: msg}
}

// classifyTransport maps an error from the HTTP round trip (no response at
// all) to a network failure.
func classifyTransport(err error) *Error {
	msg := "network error"
	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = "request timed out"
	case errors.As(err, &netErr) && netErr.Timeout():
		msg = "request timed out"
	case errors.As(err, &urlErr):
		msg = "could not reach server"
	}
	return &Error{Reason: ReasonNetwork, Message: msg}
}
