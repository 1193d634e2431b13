package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iudanet/zendash/pkg/api"
)

// Error — ответ backend со статусом вне 2xx
type Error struct {
	// Detail is the backend's "detail" field; empty when the body had none
	Detail     string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		e.Detail = errResp.Detail
	}
	return e
}

// Detail extracts the backend detail message from err, if any
func Detail(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// IsUnauthorized reports whether err is a 401 or 403 from the backend
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
