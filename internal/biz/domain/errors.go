package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownBot is returned when no state exists for a bot name
var ErrUnknownBot = errors.New("unknown bot")

// ServiceError is a failed call to the social platform
type ServiceError struct {
	Op          string // e.g. "post_status", "repost"
	Code        int    // Platform error code, 0 for transport errors
	RateLimited bool
	Retryable   bool
	Err         error
}

func (e *ServiceError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed (code %d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err carries a ServiceError
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
