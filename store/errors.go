package store

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested task id does not exist in the
// store, most commonly because another session deleted it.
var ErrNotFound = errors.New("task not found")

// ErrTransactionActive is returned by Begin when a transaction is already
// in flight. Transactions are not reentrant; one per store instance.
var ErrTransactionActive = errors.New("transaction already in progress")

// ErrNoTransaction is returned by Commit or Rollback without a matching
// Begin.
var ErrNoTransaction = errors.New("no transaction in progress")

// UnavailableError wraps backend failures (unreachable file share,
// database connection loss, timeouts). Callers should treat the task set
// as empty, surface the error, and keep the application usable.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// PartialDeleteError reports a batch delete in which at least one id
// could not be removed. The enclosing transaction has been rolled back
// and no task was deleted.
type PartialDeleteError struct {
	Failed []int
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("batch delete rolled back, failed ids: %v", e.Failed)
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
