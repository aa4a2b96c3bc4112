package store

import (
	"errors"
	"testing"

	"github.com/taskdeck/taskdeck/models"
)

func setupSQLiteStore(t *testing.T) *SQLiteTaskStore {
	t.Helper()

	store := NewSQLiteTaskStore()
	if err := store.Initialize(map[string]string{"sqlitePath": ":memory:"}); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteTaskStore_BasicOperations(t *testing.T) {
	store := setupSQLiteStore(t)

	task := models.Task{
		ID:       1,
		Title:    "Test Task",
		Priority: models.PriorityMedium,
		Category: "general",
		Reminders: []models.Reminder{
			{ID: "r1", At: "2025-03-01T09:00:00Z"},
		},
	}
	if err := store.Insert(task); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	retrieved, err := store.FindByID(1)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if retrieved.Title != task.Title {
		t.Errorf("Title mismatch: got %q, want %q", retrieved.Title, task.Title)
	}
	if len(retrieved.Reminders) != 1 || retrieved.Reminders[0].ID != "r1" {
		t.Errorf("Reminders did not round-trip: got %v", retrieved.Reminders)
	}

	updated, err := store.Update(1, map[string]any{"title": "Updated", "completed": true})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Updated" || !updated.Completed {
		t.Errorf("Update not applied: %+v", updated)
	}

	if err := store.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.FindByID(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteTaskStore_InsertDuplicateID(t *testing.T) {
	store := setupSQLiteStore(t)

	task := models.Task{ID: 3, Title: "First", Priority: models.PriorityLow}
	if err := store.Insert(task); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(task); err == nil {
		t.Error("Expected duplicate id insert to fail")
	}
}

func TestSQLiteTaskStore_UpdateUnknownField(t *testing.T) {
	store := setupSQLiteStore(t)

	if err := store.Insert(models.Task{ID: 1, Title: "A", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := store.Update(1, map[string]any{"bogus; DROP TABLE tasks": "x"}); err == nil {
		t.Error("Expected unknown field to be rejected")
	}
	if _, err := store.FindByID(1); err != nil {
		t.Errorf("Table should be intact, got %v", err)
	}
}

func TestSQLiteTaskStore_BatchDelete(t *testing.T) {
	store := setupSQLiteStore(t)

	for i := 1; i <= 3; i++ {
		if err := store.Insert(models.Task{ID: i, Title: "Task", Priority: models.PriorityLow}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	deleted, failed, err := store.BatchDelete([]int{2, 9})
	if err != nil {
		t.Fatalf("BatchDelete failed: %v", err)
	}
	if len(deleted) != 1 || deleted[0] != 2 {
		t.Errorf("Expected [2] deleted, got %v", deleted)
	}
	if len(failed) != 1 || failed[0] != 9 {
		t.Errorf("Expected [9] failed, got %v", failed)
	}
}

func TestSQLiteTaskStore_TransactionRollback(t *testing.T) {
	store := setupSQLiteStore(t)

	if err := store.Insert(models.Task{ID: 1, Title: "A", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Delete(1); err != nil {
		t.Fatalf("Delete in tx failed: %v", err)
	}
	if err := store.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := store.FindByID(1); err != nil {
		t.Errorf("Task should survive rollback, got %v", err)
	}
}

func TestSQLiteTaskStore_TransactionCommit(t *testing.T) {
	store := setupSQLiteStore(t)

	if err := store.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Insert(models.Task{ID: 1, Title: "A", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert in tx failed: %v", err)
	}
	if err := store.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if _, err := store.FindByID(1); err != nil {
		t.Errorf("Committed task should be visible, got %v", err)
	}
}

func TestSQLiteTaskStore_NestedBeginRejected(t *testing.T) {
	store := setupSQLiteStore(t)

	if err := store.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Begin(); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("Expected ErrTransactionActive, got %v", err)
	}
	if err := store.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
}
