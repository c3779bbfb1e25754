package token

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a token is requested before the API
	// base URL and login path are set.
	ErrNotConfigured = errors.New("API credentials not configured: set the base URL and login path first")

	// ErrTokenNotFound is returned when a successful login response carries
	// none of the candidate token fields.
	ErrTokenNotFound = errors.New("no token found in login response")
)

// TransportError reports a login response with a non-2xx status.
type TransportError struct {
	URL        string
	Status     int
	StatusText string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("API login to %s failed: %d %s", e.URL, e.Status, e.StatusText)
}
