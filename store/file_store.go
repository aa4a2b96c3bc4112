package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"github.com/taskdeck/taskdeck/models"
	yaml "gopkg.in/yaml.v3"
)

const (
	defaultDataFile   = "tasks.json"
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
)

// FileTaskStore implements TaskStore on a flat document file. It supports
// JSON, YAML and TOML formats, uses file-level locking, and guards the
// document with a sidecar SHA-256 checksum. Transactions are staged in
// memory and written as a single atomic save on commit.
type FileTaskStore struct {
	filePath string
	format   string
	flk      *flock.Flock
	tasks    map[int]models.Task

	inTx       bool
	txSnapshot map[int]models.Task
}

// NewFileTaskStore creates a new instance. Initialize must be called
// before use.
func NewFileTaskStore() *FileTaskStore {
	return &FileTaskStore{tasks: make(map[int]models.Task)}
}

// Initialize configures the store. It expects a 'dataFile' path and an
// optional 'dataFileFormat' (json, yaml or toml), loads existing tasks,
// and establishes the file lock.
func (s *FileTaskStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		switch f := strings.ToLower(val); f {
		case formatJSON, formatYAML, formatTOML:
			s.format = f
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s (supported: json, yaml, toml)", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	if dir := filepath.Dir(s.filePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &UnavailableError{Op: "initialize", Err: fmt.Errorf("create directory %s: %w", dir, err)}
		}
	}

	s.flk = flock.New(s.filePath)
	if err := s.flk.Lock(); err != nil {
		return &UnavailableError{Op: "initialize", Err: fmt.Errorf("acquire lock for %s: %w", s.filePath, err)}
	}
	defer func() { _ = s.flk.Unlock() }()

	s.tasks = make(map[int]models.Task)
	return s.loadInternal()
}

func calculateChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// loadInternal reads the document, verifies the checksum and unmarshals.
// The file lock must be held by the caller.
func (s *FileTaskStore) loadInternal() error {
	checksumPath := s.filePath + checksumSuffix

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.tasks = make(map[int]models.Task)
			_ = os.Remove(checksumPath)
			f, createErr := os.OpenFile(s.filePath, os.O_CREATE|os.O_RDWR, 0o644)
			if createErr != nil {
				return &UnavailableError{Op: "load", Err: fmt.Errorf("create data file %s: %w", s.filePath, createErr)}
			}
			_ = f.Close()
			_ = os.WriteFile(checksumPath, []byte(calculateChecksum(nil)), 0o644)
			return nil
		}
		return &UnavailableError{Op: "load", Err: fmt.Errorf("read data file %s: %w", s.filePath, err)}
	}

	if _, err := os.Stat(checksumPath); err == nil {
		expected, readErr := os.ReadFile(checksumPath)
		if readErr != nil {
			return &UnavailableError{Op: "load", Err: fmt.Errorf("read checksum file %s: %w", checksumPath, readErr)}
		}
		if actual := calculateChecksum(data); actual != strings.TrimSpace(string(expected)) {
			return &UnavailableError{Op: "load", Err: fmt.Errorf("checksum mismatch for %s: file is corrupt or tampered", s.filePath)}
		}
	} else if !os.IsNotExist(err) {
		return &UnavailableError{Op: "load", Err: fmt.Errorf("stat checksum file %s: %w", checksumPath, err)}
	}
	// A data file without a checksum predates checksumming; load it and
	// let the next save create one.

	if len(data) == 0 {
		_ = os.WriteFile(checksumPath, []byte(calculateChecksum(nil)), 0o644)
		s.tasks = make(map[int]models.Task)
		return nil
	}

	var list models.TaskList
	switch s.format {
	case formatJSON:
		err = json.Unmarshal(data, &list)
	case formatYAML:
		err = yaml.Unmarshal(data, &list)
	case formatTOML:
		err = toml.Unmarshal(data, &list)
	default:
		return fmt.Errorf("unsupported data format for loading: %s", s.format)
	}
	if err != nil {
		return &UnavailableError{Op: "load", Err: fmt.Errorf("unmarshal %s from %s: %w", s.format, s.filePath, err)}
	}

	s.tasks = make(map[int]models.Task, len(list.Tasks))
	for _, task := range list.Tasks {
		s.tasks[task.ID] = task
	}
	return nil
}

// saveInternal marshals the task map, writes it through a temp file
// rename, then updates the checksum sidecar. The file lock must be held.
func (s *FileTaskStore) saveInternal() error {
	list := models.TaskList{
		Tasks:      make([]models.Task, 0, len(s.tasks)),
		TotalCount: len(s.tasks),
	}
	for _, task := range s.tasks {
		list.Tasks = append(list.Tasks, task)
	}

	var data []byte
	var err error
	switch s.format {
	case formatJSON:
		data, err = json.MarshalIndent(list, "", "  ")
	case formatYAML:
		data, err = yaml.Marshal(list)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encErr := toml.NewEncoder(buf).Encode(list); encErr != nil {
			err = encErr
		} else {
			data = buf.Bytes()
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("marshal tasks to %s: %w", s.format, err)
	}

	tempPath := s.filePath + ".tmp"
	checksumPath := s.filePath + checksumSuffix
	tempChecksumPath := checksumPath + ".tmp"
	defer func() { _ = os.Remove(tempPath) }()
	defer func() { _ = os.Remove(tempChecksumPath) }()

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return &UnavailableError{Op: "save", Err: fmt.Errorf("write temporary data file %s: %w", tempPath, err)}
	}
	if err := os.WriteFile(tempChecksumPath, []byte(calculateChecksum(data)), 0o644); err != nil {
		return &UnavailableError{Op: "save", Err: fmt.Errorf("write temporary checksum file %s: %w", tempChecksumPath, err)}
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		return &UnavailableError{Op: "save", Err: fmt.Errorf("rename %s to %s: %w", tempPath, s.filePath, err)}
	}
	if err := os.Rename(tempChecksumPath, checksumPath); err != nil {
		return &UnavailableError{Op: "save", Err: fmt.Errorf("data file %s updated but checksum update failed: %w", s.filePath, err)}
	}
	return nil
}

// begin a non-transactional single operation: take the lock and reload.
func (s *FileTaskStore) enter(op string) (release func(), err error) {
	if s.inTx {
		// The tx path already holds the lock and a fresh map.
		return func() {}, nil
	}
	if err := s.flk.Lock(); err != nil {
		return nil, &UnavailableError{Op: op, Err: fmt.Errorf("lock %s: %w", s.filePath, err)}
	}
	if err := s.loadInternal(); err != nil {
		_ = s.flk.Unlock()
		return nil, err
	}
	return func() { _ = s.flk.Unlock() }, nil
}

// persist writes the map to disk unless a transaction is staging changes,
// in which case the write happens at Commit.
func (s *FileTaskStore) persist() error {
	if s.inTx {
		return nil
	}
	return s.saveInternal()
}

// LoadAll returns every task in the store.
func (s *FileTaskStore) LoadAll() ([]models.Task, error) {
	release, err := s.enter("load_all")
	if err != nil {
		return nil, err
	}
	defer release()

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// FindByID retrieves a task by id.
func (s *FileTaskStore) FindByID(id int) (models.Task, error) {
	release, err := s.enter("find_by_id")
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return task, nil
}

// Insert adds a new task with the caller-assigned id.
func (s *FileTaskStore) Insert(task models.Task) error {
	release, err := s.enter("insert")
	if err != nil {
		return err
	}
	defer release()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task with id %d already exists", task.ID)
	}
	s.tasks[task.ID] = task

	if err := s.persist(); err != nil {
		delete(s.tasks, task.ID)
		return err
	}
	return nil
}

// Update applies field updates to a task and returns the result.
func (s *FileTaskStore) Update(id int, updates map[string]any) (models.Task, error) {
	release, err := s.enter("update")
	if err != nil {
		return models.Task{}, err
	}
	defer release()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	original := task

	if err := applyUpdates(&task, updates); err != nil {
		return models.Task{}, err
	}
	s.tasks[id] = task

	if err := s.persist(); err != nil {
		s.tasks[id] = original
		return models.Task{}, err
	}
	return task, nil
}

// Delete removes a task by id.
func (s *FileTaskStore) Delete(id int) error {
	release, err := s.enter("delete")
	if err != nil {
		return err
	}
	defer release()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	delete(s.tasks, id)

	if err := s.persist(); err != nil {
		s.tasks[id] = task
		return err
	}
	return nil
}

// BatchDelete removes several tasks, reporting per-id success. Rollback
// on partial failure is the caller's decision via the transaction.
func (s *FileTaskStore) BatchDelete(ids []int) ([]int, []int, error) {
	release, err := s.enter("batch_delete")
	if err != nil {
		return nil, nil, err
	}
	defer release()

	removed := make(map[int]models.Task)
	var deleted, failed []int
	for _, id := range ids {
		task, ok := s.tasks[id]
		if !ok {
			failed = append(failed, id)
			continue
		}
		removed[id] = task
		delete(s.tasks, id)
		deleted = append(deleted, id)
	}

	if err := s.persist(); err != nil {
		for id, task := range removed {
			s.tasks[id] = task
		}
		return nil, nil, err
	}
	return deleted, failed, nil
}

// Begin starts a staged transaction: the lock is held and all mutations
// accumulate in memory until Commit writes them in one atomic save.
func (s *FileTaskStore) Begin() error {
	if s.inTx {
		return ErrTransactionActive
	}
	if err := s.flk.Lock(); err != nil {
		return &UnavailableError{Op: "begin", Err: fmt.Errorf("lock %s: %w", s.filePath, err)}
	}
	if err := s.loadInternal(); err != nil {
		_ = s.flk.Unlock()
		return err
	}
	s.txSnapshot = make(map[int]models.Task, len(s.tasks))
	for id, task := range s.tasks {
		s.txSnapshot[id] = task
	}
	s.inTx = true
	return nil
}

// Commit writes the staged state and releases the lock.
func (s *FileTaskStore) Commit() error {
	if !s.inTx {
		return ErrNoTransaction
	}
	defer func() {
		s.inTx = false
		s.txSnapshot = nil
		_ = s.flk.Unlock()
	}()

	if err := s.saveInternal(); err != nil {
		s.tasks = s.txSnapshot
		return err
	}
	return nil
}

// Rollback discards the staged state and releases the lock.
func (s *FileTaskStore) Rollback() error {
	if !s.inTx {
		return ErrNoTransaction
	}
	s.tasks = s.txSnapshot
	s.inTx = false
	s.txSnapshot = nil
	return s.flk.Unlock()
}

// Close releases the file lock. flock.Unlock is idempotent.
func (s *FileTaskStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}
