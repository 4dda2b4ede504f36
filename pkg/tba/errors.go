package tba

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthTokenMissing is returned for any request attempted without an auth key.
// No network activity happens when it is returned.
var ErrAuthTokenMissing = errors.New("tba: auth key is not set; configure it before issuing requests")

// APIError describes a non-2xx, non-304 response.
type APIError struct {
	Status  int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("status %d", e.Status)
	}
	if e.Body == "" {
		return "tba: " + msg
	}
	return fmt.Sprintf("tba: %s: %s", msg, e.Body)
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
