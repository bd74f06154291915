package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/event-registration/internal/email"
	"github.com/Shivanand-hulikatti/event-registration/internal/notification"
	"github.com/Shivanand-hulikatti/event-registration/internal/queue"
)

const (
	DefaultRetryDelay = 30 * time.Second
	NetworkRetryDelay = 60 * time.Second
)

type permanentError struct {
	cause error
}

func (e permanentError) Error() string {
	if e.cause == nil {
		return "permanent error"
	}
	return e.cause.Error()
}

func (e permanentError) Unwrap() error {
	return e.cause
}

// Permanent marks an error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{cause: err}
}

// IsPermanent reports whether err was explicitly marked as non-retryable.
func IsPermanent(err error) bool {
	var target permanentError
	return errors.As(err, &target)
}

// Outcome is the retry decision for a failed message.
type Outcome struct {
	Retryable bool
	Delay     time.Duration
	Reason    string
}

// Classify decides whether a failed message is retried and after how long.
// Unrecognized errors are retried.
func Classify(err error) Outcome {
	var (
		transportErr *email.TransportError
		apiErr       *email.APIError
	)
	switch {
	case err == nil:
		return Outcome{Reason: "ok"}
	case notification.IsValidationError(err):
		return Outcome{Reason: "validation"}
	case errors.Is(err, email.ErrNotConfigured):
		return Outcome{Reason: "configuration"}
	case IsPermanent(err):
		return Outcome{Reason: "permanent"}
	case errors.As(err, &transportErr):
		return Outcome{Retryable: true, Delay: NetworkRetryDelay, Reason: "network " + transportErr.Code}
	case errors.As(err, &apiErr):
		reason := fmt.Sprintf("api status %d", apiErr.StatusCode)
		if !apiErr.Retryable {
			return Outcome{Reason: reason}
		}
		return Outcome{Retryable: true, Delay: DefaultRetryDelay, Reason: reason}
	case errors.Is(err, context.Canceled):
		return Outcome{Retryable: true, Delay: DefaultRetryDelay, Reason: "canceled"}
	default:
		return Outcome{Retryable: true, Delay: DefaultRetryDelay, Reason: "unknown"}
	}
}

// Failure is one record that failed processing.
type Failure struct {
	Record  queue.Record
	Err     error
	Outcome Outcome
}

// BatchError signals that at least one record in a batch must be retried.
type BatchError struct {
	Retry      []Failure
	DeadLetter []Failure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of the batch's messages need redelivery", len(e.Retry))
}

// MaxDelay is the longest delay requested by the retryable failures.
func (e *BatchError) MaxDelay() time.Duration {
	var max time.Duration
	for _, f := range e.Retry {
		if f.Outcome.Delay > max {
			max = f.Outcome.Delay
		}
	}
	return max
}
