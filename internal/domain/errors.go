package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before persistence
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing record
	ErrNotFound = errors.New("not found")
	// ErrSyncDisabled is returned when no remote mirror is configured
	ErrSyncDisabled = errors.New("cloud sync is not enabled")
	// ErrRemoteFetch marks a failure reading the remote mirror; local data is untouched
	ErrRemoteFetch = errors.New("remote fetch failed")
	// ErrSyncAborted marks a reconciliation that failed part way through
	ErrSyncAborted = errors.New("sync aborted")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundError wraps ErrNotFound with the kind and id of the missing record
func NotFoundError(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
