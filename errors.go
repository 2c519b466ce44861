package scoutpod

import "errors"

// ErrSessionClosed is returned by In and Out once the session has been
// closed or has finished its run.
var ErrSessionClosed = errors.New("session has been closed")

// RetryableError marks a tool failure the model should retry, typically a
// transient upstream condition like a rate limit or a network timeout.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func NewRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err}
}

// IgnorableError marks a tool failure that retrying won't fix, e.g. a URL
// that doesn't resolve. The model is told not to try again.
type IgnorableError struct {
	Err error
}

func (e *IgnorableError) Error() string { return e.Err.Error() }
func (e *IgnorableError) Unwrap() error { return e.Err }

func NewIgnorableError(err error) *IgnorableError {
	return &IgnorableError{Err: err}
}
