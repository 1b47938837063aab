package usecase

import (
	"context"
	"errors"

	"github.com/robot-zoo/robotzoo/internal/biz/domain"
	"github.com/robot-zoo/robotzoo/internal/retry"
)

// ClassifyServiceError maps platform failures onto retry actions.
// Errors that are not service errors are treated as transport failures.
func ClassifyServiceError(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	var se *domain.ServiceError
	if !errors.As(err, &se) {
		return retry.Retry
	}
	switch {
	case se.RateLimited:
		return retry.After
	case se.Retryable:
		return retry.Retry
	}
	return retry.Stop
}
