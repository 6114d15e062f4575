package cloud

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable wraps transport-level failures (DNS, refused, timeout).
	ErrUnreachable = errors.New("cloud: unreachable")

	// ErrInvalidURL is returned by New when the base URL cannot be parsed.
	ErrInvalidURL = errors.New("cloud: invalid base url")
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// StatusError is returned when the authority answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("cloud: status %d", e.StatusCode)
	}
	return fmt.Sprintf("cloud: status %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
