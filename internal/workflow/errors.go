package workflow

import "errors"

// nonRetriableError marks a failure that retrying cannot fix.
type nonRetriableError struct {
	err error
}

func (e *nonRetriableError) Error() string { return e.err.Error() }
func (e *nonRetriableError) Unwrap() error { return e.err }

// NonRetriable wraps err so the engine stops the run instead of retrying it.
func NonRetriable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetriableError{err: err}
}

// IsNonRetriable reports whether err, or anything it wraps, was marked non-retriable.
func IsNonRetriable(err error) bool {
	var target *nonRetriableError
	return errors.As(err, &target)
}
