package linkedin

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("missing LinkedIn credentials")
	ErrStateMismatch      = errors.New("oauth state does not match")
	ErrNoCode             = errors.New("no authorization code found")
)

// APIError is a non-2xx answer from LinkedIn. Body is the raw response.
type APIError struct {
	Step   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("linkedin %s: status %d: %s", e.Step, e.Status, e.Body)
}
