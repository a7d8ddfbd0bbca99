// minber/database/errors.go
package database

import (
	"errors"
	"fmt"
)

// ConnectionError means the backend could not be reached at all. The
// storage facade uses this distinction to decide whether a failover
// attempt against the secondary backend makes sense.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("backend %s unreachable: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConstraintError means the backend rejected the operation because it
// would violate a uniqueness, foreign-key or check constraint. It is
// never retried.
type ConstraintError struct {
	Backend string
	Err     error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("backend %s constraint violation: %v", e.Backend, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err is (or wraps) a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsConstraintError reports whether err is (or wraps) a ConstraintError.
func IsConstraintError(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}
