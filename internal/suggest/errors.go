package suggest

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("suggest: provider returned %d: %s", e.Code, e.Message)
}

// statusError extracts a readable message from a provider error body.
func statusError(code int, body []byte) *StatusError {
	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &resp) == nil {
		msg := resp.Error.Message
		if msg == "" {
			msg = resp.Message
		}
		if msg != "" {
			return &StatusError{Code: code, Message: msg}
		}
	}

	var msg string
	switch code {
	case http.StatusUnauthorized:
		msg = "authentication failed, check the API key"
	case http.StatusForbidden:
		msg = "access denied"
	case http.StatusNotFound:
		msg = "model or endpoint not found"
	case http.StatusTooManyRequests:
		msg = "rate limited or quota exhausted"
	case http.StatusBadGateway, http.StatusServiceUnavailable, 529:
		msg = "provider temporarily unavailable"
	default:
		s := string(body)
		if len(s) > 200 {
			s = s[:200] + "..."
		}
		msg = s
	}
	return &StatusError{Code: code, Message: msg}
}
