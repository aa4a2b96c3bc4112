package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/taskdeck/taskdeck/models"
)

func setupTestStore(t *testing.T) *FileTaskStore {
	t.Helper()

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "tasks.json")

	store := NewFileTaskStore()
	config := map[string]string{
		"dataFile":       filePath,
		"dataFileFormat": "json",
	}

	err := store.Initialize(config)
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}

	return store
}

func TestFileTaskStore_BasicOperations(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	task := models.Task{
		ID:          1,
		Title:       "Test Task",
		Description: "Test Description",
		Priority:    models.PriorityMedium,
		Category:    "general",
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

	updates := map[string]any{
		"title":    "Updated Task",
		"priority": "high",
	}
	updated, err := store.Update(1, updates)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "Updated Task" {
		t.Errorf("Title not updated: got %q, want %q", updated.Title, "Updated Task")
	}
	if updated.Priority != models.PriorityHigh {
		t.Errorf("Priority not updated: got %q, want %q", updated.Priority, models.PriorityHigh)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(all))
	}

	if err := store.Delete(1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.FindByID(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileTaskStore_InsertDuplicateID(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	task := models.Task{ID: 7, Title: "First", Priority: models.PriorityLow}
	if err := store.Insert(task); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(task); err == nil {
		t.Error("Expected duplicate id insert to fail")
	}
}

func TestFileTaskStore_UpdateUnknownField(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Insert(models.Task{ID: 1, Title: "A", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := store.Update(1, map[string]any{"bogus": "x"}); err == nil {
		t.Error("Expected unknown field to be rejected")
	}
}

func TestFileTaskStore_UpdateNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if _, err := store.Update(99, map[string]any{"title": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileTaskStore_BatchDelete(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	for i := 1; i <= 3; i++ {
		if err := store.Insert(models.Task{ID: i, Title: "Task", Priority: models.PriorityLow}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	deleted, failed, err := store.BatchDelete([]int{1, 5, 3})
	if err != nil {
		t.Fatalf("BatchDelete failed: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("Expected 2 deleted, got %v", deleted)
	}
	if len(failed) != 1 || failed[0] != 5 {
		t.Errorf("Expected [5] failed, got %v", failed)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != 2 {
		t.Errorf("Expected only task 2 to remain, got %v", all)
	}
}

func TestFileTaskStore_TransactionCommit(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Insert(models.Task{ID: 1, Title: "A", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := store.Insert(models.Task{ID: 2, Title: "B", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert in tx failed: %v", err)
	}
	if _, err := store.Update(1, map[string]any{"completed": true}); err != nil {
		t.Fatalf("Update in tx failed: %v", err)
	}
	if err := store.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	all, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 tasks after commit, got %d", len(all))
	}
}

func TestFileTaskStore_TransactionRollback(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

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

func TestFileTaskStore_NestedBeginRejected(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

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

func TestFileTaskStore_CommitWithoutBegin(t *testing.T) {
	store := setupTestStore(t)
	defer func() { _ = store.Close() }()

	if err := store.Commit(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Expected ErrNoTransaction, got %v", err)
	}
	if err := store.Rollback(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Expected ErrNoTransaction, got %v", err)
	}
}

func TestFileTaskStore_ChecksumMismatch(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "tasks.json")

	store := NewFileTaskStore()
	config := map[string]string{"dataFile": filePath, "dataFileFormat": "json"}
	if err := store.Initialize(config); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := store.Insert(models.Task{ID: 1, Title: "A", Priority: models.PriorityLow}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	_ = store.Close()

	// Tamper with the data file behind the store's back.
	if err := os.WriteFile(filePath, []byte(`{"tasks":[],"totalCount":0}`), 0o644); err != nil {
		t.Fatalf("Tamper write failed: %v", err)
	}

	reopened := NewFileTaskStore()
	err := reopened.Initialize(config)
	if err == nil {
		t.Fatal("Expected checksum mismatch on reopen")
	}
	var uerr *UnavailableError
	if !errors.As(err, &uerr) {
		t.Errorf("Expected UnavailableError, got %v", err)
	}
}

func TestFileTaskStore_RoundTripAllFormats(t *testing.T) {
	full := models.Task{
		ID:            11,
		Title:         "Update GA drawing",
		Description:   "Hull section rework",
		Priority:      models.PriorityHigh,
		Category:      "drawings",
		DueDate:       "2025-03-01",
		RequestedDate: "2025-02-01",
		DateStarted:   "2025-02-05",
		Completed:     true,
		MainStaff:     "Jay",
		AssignedTo:    "Earl",
		AppliedVessel: "MV Aurora",
		Rev:           "3",
		DrawingNo:     "GA-1042",
		Link:          "https://drawings.example/ga-1042",
		SDBLink:       "https://sdb.example/ga-1042",
		RequestNo:     "REQ-884",
		QtdMhr:        40,
		ActualMhr:     35,
		CreatedDate:   "2025-02-01",
		CreatedBy:     "tester",
		LastModified:  "2025-02-10 14:30:00",
		ModifiedBy:    "tester",
		Reminders: []models.Reminder{
			{ID: "r1", At: "2025-02-28T09:00:00Z"},
		},
	}

	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			filePath := filepath.Join(t.TempDir(), "tasks."+format)
			config := map[string]string{"dataFile": filePath, "dataFileFormat": format}

			store := NewFileTaskStore()
			if err := store.Initialize(config); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			if err := store.Insert(full); err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			_ = store.Close()

			reopened := NewFileTaskStore()
			if err := reopened.Initialize(config); err != nil {
				t.Fatalf("Reopen failed: %v", err)
			}
			defer func() { _ = reopened.Close() }()

			got, err := reopened.FindByID(full.ID)
			if err != nil {
				t.Fatalf("FindByID after reopen failed: %v", err)
			}
			if !reflect.DeepEqual(got, full) {
				t.Errorf("Task changed across save/load:\ngot  %+v\nwant %+v", got, full)
			}
		})
	}
}

func TestFileTaskStore_YAMLFormat(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "tasks.yaml")

	store := NewFileTaskStore()
	config := map[string]string{"dataFile": filePath, "dataFileFormat": "yaml"}
	if err := store.Initialize(config); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Insert(models.Task{ID: 1, Title: "Yaml Task", Priority: models.PriorityHigh}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	reopened := NewFileTaskStore()
	if err := reopened.Initialize(config); err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	task, err := reopened.FindByID(1)
	if err != nil {
		t.Fatalf("FindByID after reopen failed: %v", err)
	}
	if task.Title != "Yaml Task" {
		t.Errorf("Title mismatch after reopen: got %q", task.Title)
	}
}
