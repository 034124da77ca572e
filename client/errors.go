package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// fallbackErrorMessage is used when a failure envelope carries no message.
const fallbackErrorMessage = "request failed"

// ErrUnauthorized is returned when the server rejects the session with a
// 401 on a non-auth endpoint. By the time the caller sees it the local
// session has already been cleared.
var ErrUnauthorized = errors.New("client: session rejected")

// APIError is a failure reported by the server through the response
// envelope. Details carries the server's structured error payload, if any,
// for callers that need more than the message.
type APIError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fallbackErrorMessage
	}
	return e.Message
}

// StatusError is a non-2xx response without a parseable failure envelope.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsCanceled reports whether err comes from a cancelled request context.
// Callers that supersede their own in-flight requests (debounced search)
// use this to drop the stale failure instead of reporting it.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
