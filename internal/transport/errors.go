package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrAuthRequired means no credential could be recovered and the user
	// has to log in again.
	ErrAuthRequired = errors.New("authentication required")
	// ErrRefreshFailed means the refresh call itself failed. Both stored
	// credentials have been cleared.
	ErrRefreshFailed = errors.New("credential refresh failed")
)

const maxErrorBody = 4 << 10

// StatusError is a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// CheckResponse returns nil for 2xx responses. Anything else is drained,
// closed and returned as a *StatusError.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return newStatusError(resp)
}

func newStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	if resp.Request != nil {
		se.Method = resp.Request.Method
		if resp.Request.URL != nil {
			se.URL = resp.Request.URL.Redacted()
		}
	}
	return se
}

// IsStatus reports whether err carries an upstream response with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
