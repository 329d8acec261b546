package sdk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the core API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("core API error %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	// The API wraps error descriptions in {"detail": ...} where detail may
	// be a plain string or a structured object.
	var wrapper struct {
		Detail json.RawMessage `json:"detail"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &wrapper); err == nil && len(wrapper.Detail) > 0 {
		var s string
		if err := json.Unmarshal(wrapper.Detail, &s); err == nil {
			msg = s
		} else {
			msg = string(wrapper.Detail)
		}
	}
	if msg == "" {
		msg = "no error details provided"
	}
	return &APIError{Status: status, Message: msg}
}
