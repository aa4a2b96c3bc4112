package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/taskdeck/taskdeck/models"
	_ "modernc.org/sqlite"
)

const sqlitePathKey = "sqlitePath"

// taskColumns is the persisted column set, in insert order. Reminders are
// stored as a JSON array in a text column.
var taskColumns = []string{
	"id", "title", "description", "priority", "category",
	"due_date", "requested_date", "date_started", "completed",
	"main_staff", "assigned_to",
	"applied_vessel", "rev", "drawing_no", "link", "sdb_link", "request_no",
	"qtd_mhr", "actual_mhr",
	"created_date", "created_by", "last_modified", "modified_by",
	"reminders",
}

// SQLiteTaskStore implements TaskStore on a SQLite database. All mutating
// statements are parameterized; transactions map onto sql.Tx.
type SQLiteTaskStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSQLiteTaskStore creates a new instance. Initialize must be called
// before use.
func NewSQLiteTaskStore() *SQLiteTaskStore {
	return &SQLiteTaskStore{}
}

// Initialize opens (or creates) the database at config["sqlitePath"] and
// ensures the schema exists. ":memory:" is accepted for tests.
func (s *SQLiteTaskStore) Initialize(config map[string]string) error {
	path := config[sqlitePathKey]
	if path == "" {
		path = "tasks.db"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return &UnavailableError{Op: "initialize", Err: fmt.Errorf("create directory %s: %w", dir, err)}
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &UnavailableError{Op: "initialize", Err: fmt.Errorf("open database %s: %w", path, err)}
	}
	// A single connection keeps :memory: databases coherent and lets the
	// non-WAL default avoid writer contention.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return &UnavailableError{Op: "initialize", Err: fmt.Errorf("enable foreign keys: %w", err)}
	}

	s.db = db
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return err
	}
	return nil
}

func (s *SQLiteTaskStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		category TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL DEFAULT '',
		requested_date TEXT NOT NULL DEFAULT '',
		date_started TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		main_staff TEXT NOT NULL DEFAULT '',
		assigned_to TEXT NOT NULL DEFAULT '',
		applied_vessel TEXT NOT NULL DEFAULT '',
		rev TEXT NOT NULL DEFAULT '',
		drawing_no TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		sdb_link TEXT NOT NULL DEFAULT '',
		request_no TEXT NOT NULL DEFAULT '',
		qtd_mhr INTEGER NOT NULL DEFAULT 0,
		actual_mhr INTEGER NOT NULL DEFAULT 0,
		created_date TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL DEFAULT '',
		modified_by TEXT NOT NULL DEFAULT '',
		reminders TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return &UnavailableError{Op: "initialize", Err: fmt.Errorf("init schema: %w", err)}
	}
	return nil
}

// executor abstracts *sql.DB and *sql.Tx so every statement runs against
// the active transaction when one is in flight.
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (s *SQLiteTaskStore) exec() executor {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func taskValues(t models.Task) []any {
	reminders, _ := json.Marshal(t.Reminders)
	return []any{
		t.ID, t.Title, t.Description, string(t.Priority), t.Category,
		t.DueDate, t.RequestedDate, t.DateStarted, t.Completed,
		t.MainStaff, t.AssignedTo,
		t.AppliedVessel, t.Rev, t.DrawingNo, t.Link, t.SDBLink, t.RequestNo,
		t.QtdMhr, t.ActualMhr,
		t.CreatedDate, t.CreatedBy, t.LastModified, t.ModifiedBy,
		string(reminders),
	}
}

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	var priority, reminders string
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &priority, &t.Category,
		&t.DueDate, &t.RequestedDate, &t.DateStarted, &t.Completed,
		&t.MainStaff, &t.AssignedTo,
		&t.AppliedVessel, &t.Rev, &t.DrawingNo, &t.Link, &t.SDBLink, &t.RequestNo,
		&t.QtdMhr, &t.ActualMhr,
		&t.CreatedDate, &t.CreatedBy, &t.LastModified, &t.ModifiedBy,
		&reminders,
	)
	if err != nil {
		return models.Task{}, err
	}
	t.Priority = models.TaskPriority(priority)
	if reminders != "" && reminders != "[]" {
		if err := json.Unmarshal([]byte(reminders), &t.Reminders); err != nil {
			return models.Task{}, fmt.Errorf("decode reminders for task %d: %w", t.ID, err)
		}
	}
	return t, nil
}

// LoadAll returns every task in the store.
func (s *SQLiteTaskStore) LoadAll() ([]models.Task, error) {
	query := "SELECT " + strings.Join(taskColumns, ", ") + " FROM tasks"
	rows, err := s.exec().Query(query)
	if err != nil {
		return nil, &UnavailableError{Op: "load_all", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, &UnavailableError{Op: "load_all", Err: err}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &UnavailableError{Op: "load_all", Err: err}
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// FindByID retrieves a task by id.
func (s *SQLiteTaskStore) FindByID(id int) (models.Task, error) {
	query := "SELECT " + strings.Join(taskColumns, ", ") + " FROM tasks WHERE id = ?"
	t, err := scanTask(s.exec().QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Task{}, &UnavailableError{Op: "find_by_id", Err: err}
	}
	return t, nil
}

// Insert adds a new task with the caller-assigned id.
func (s *SQLiteTaskStore) Insert(task models.Task) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(taskColumns)), ", ")
	query := "INSERT INTO tasks (" + strings.Join(taskColumns, ", ") + ") VALUES (" + placeholders + ")"
	if _, err := s.exec().Exec(query, taskValues(task)...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return fmt.Errorf("task with id %d already exists", task.ID)
		}
		return &UnavailableError{Op: "insert", Err: err}
	}
	return nil
}

// Update applies field updates via a parameterized SET clause built only
// from whitelisted column names.
func (s *SQLiteTaskStore) Update(id int, updates map[string]any) (models.Task, error) {
	if len(updates) == 0 {
		return s.FindByID(id)
	}

	// Validate against the entity field set before touching SQL.
	var scratch models.Task
	if err := applyUpdates(&scratch, updates); err != nil {
		return models.Task{}, err
	}

	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sets []string
	var args []any
	for _, key := range keys {
		value := updates[key]
		switch v := value.(type) {
		case models.TaskPriority:
			value = string(v)
		case []models.Reminder:
			encoded, err := json.Marshal(v)
			if err != nil {
				return models.Task{}, fmt.Errorf("encode reminders: %w", err)
			}
			value = string(encoded)
		}
		sets = append(sets, key+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.exec().Exec(query, args...)
	if err != nil {
		return models.Task{}, &UnavailableError{Op: "update", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, &UnavailableError{Op: "update", Err: err}
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return s.FindByID(id)
}

// Delete removes a task by id.
func (s *SQLiteTaskStore) Delete(id int) error {
	res, err := s.exec().Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return &UnavailableError{Op: "delete", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &UnavailableError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return nil
}

// BatchDelete removes several tasks, reporting per-id success. Rollback
// on partial failure is the caller's decision via the transaction.
func (s *SQLiteTaskStore) BatchDelete(ids []int) ([]int, []int, error) {
	var deleted, failed []int
	for _, id := range ids {
		res, err := s.exec().Exec("DELETE FROM tasks WHERE id = ?", id)
		if err != nil {
			return deleted, append(failed, id), &UnavailableError{Op: "batch_delete", Err: err}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return deleted, append(failed, id), &UnavailableError{Op: "batch_delete", Err: err}
		}
		if affected == 0 {
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted, failed, nil
}

// Begin starts a database transaction. Not reentrant.
func (s *SQLiteTaskStore) Begin() error {
	if s.tx != nil {
		return ErrTransactionActive
	}
	tx, err := s.db.Begin()
	if err != nil {
		return &UnavailableError{Op: "begin", Err: err}
	}
	s.tx = tx
	return nil
}

// Commit makes the transaction durable.
func (s *SQLiteTaskStore) Commit() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return &UnavailableError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback discards the transaction.
func (s *SQLiteTaskStore) Rollback() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return &UnavailableError{Op: "rollback", Err: err}
	}
	return nil
}

// Close releases the database connection, rolling back any transaction
// left open.
func (s *SQLiteTaskStore) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
