package store

import "github.com/taskdeck/taskdeck/models"

// TaskStore defines the contract for task persistence. Two backends
// implement it: a flat document file and a SQLite database. All mutating
// calls leave the backing store authoritative; callers are expected to
// refresh any in-memory view after a successful mutation.
type TaskStore interface {
	// Initialize configures the store with backend-specific settings
	// (file path, data format, database path). It must be called before
	// any other operation.
	Initialize(config map[string]string) error

	// LoadAll returns every task in the store. If the backend cannot be
	// reached it returns an UnavailableError; the caller should treat
	// the task set as empty and surface the error.
	LoadAll() ([]models.Task, error)

	// FindByID retrieves a task by id, or ErrNotFound.
	FindByID(id int) (models.Task, error)

	// Insert adds a new task. The id must be set by the caller and must
	// not collide with a live task.
	Insert(task models.Task) error

	// Update applies the given field updates to the task with the given
	// id and returns the resulting record. Keys are the persisted field
	// names (e.g. "title", "due_date", "completed").
	Update(id int, updates map[string]any) (models.Task, error)

	// Delete removes a task by id, or returns ErrNotFound.
	Delete(id int) error

	// BatchDelete removes several tasks and reports which ids succeeded
	// and which failed. It does not roll back on partial failure; the
	// caller decides, using the surrounding transaction.
	BatchDelete(ids []int) (deleted []int, failed []int, err error)

	// Begin starts a transaction. Transactions are not reentrant; a
	// second Begin returns ErrTransactionActive.
	Begin() error

	// Commit makes all mutations since Begin durable.
	Commit() error

	// Rollback discards all mutations since Begin.
	Rollback() error

	// Close releases file locks or database connections.
	Close() error
}
