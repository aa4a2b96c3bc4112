package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck/models"
	"github.com/taskdeck/taskdeck/store"
)

var (
	// ErrNothingToUndo is returned by Undo on an empty history.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo on an empty redo stack.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Options configures a Service.
type Options struct {
	// Roster is the closed set of staff identifiers accepted for
	// main_staff and assigned_to.
	Roster []string
	// DefaultCategory is applied when a new task has no category.
	DefaultCategory string
	// User is the identity stamped into provenance fields. Injected
	// rather than inferred from the environment.
	User string
	// Strict requires the full drawing-request field set on add/edit.
	Strict bool
	// HistoryDepth bounds the undo stack (default 10).
	HistoryDepth int
	// History, when non-nil, seeds the service with a previously
	// persisted undo/redo log.
	History *History
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Summary is the status line exposed to the UI layer.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// Service owns the authoritative in-memory task set and drives the store
// transactionally. Mutations are serialized; callers hold read-only
// projections refreshed after each confirmed mutation.
type Service struct {
	mu      sync.Mutex
	store   store.TaskStore
	tasks   []models.Task
	history *History
	opts    Options
	now     func() time.Time

	refreshMu      sync.Mutex
	refreshing     bool
	pendingRefresh bool
}

// NewService creates a Service over the given store and performs the
// initial load. If the store is unreachable the service starts with an
// empty task set and the error is returned alongside the usable service,
// so the caller can surface it and stay up.
func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

func NewService(st store.TaskStore, opts Options) (*Service, error) {
	history := opts.History
	if history == nil {
		history = NewHistory(opts.HistoryDepth)
	}
	s := &Service{
		store:   st,
		history: history,
		opts:    opts,
		now:     opts.clock(),
	}
	tasks, err := st.LoadAll()
	if err != nil {
		s.tasks = []models.Task{}
		return s, err
	}
	s.tasks = tasks
	return s, nil
}

// History exposes the undo/redo log so the caller can persist it.
func (s *Service) History() *History {
	return s.history
}

// List returns a copy of the current in-memory task set, ordered by id.
func (s *Service) List() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Summary reports total, completed and pending counts.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			sum.Completed++
		} else {
			sum.Pending++
		}
	}
	return sum
}

// Find returns the live task with the given id from the in-memory set.
func (s *Service) Find(id int) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Service) findLocked(id int) (models.Task, error) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return models.Task{}, fmt.Errorf("id %d: %w", id, store.ErrNotFound)
}

// nextID generates a new id as max(existing)+1 against the current live
// set. Restored tasks keep their original ids, so an id freed by delete
// is only reissued once its History entry can no longer resurrect it
// with a higher-numbered neighbor still alive.
func (s *Service) nextID() int {
	max := 0
	for _, t := range s.tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

// reloadLocked refreshes the in-memory set from the store. Every
// successful mutation invalidates the cache, so this runs after each
// commit (read-your-writes within this process).
func (s *Service) reloadLocked() error {
	tasks, err := s.store.LoadAll()
	if err != nil {
		return err
	}
	s.tasks = tasks
	return nil
}

// Add validates the draft, assigns the next id, stamps provenance and
// inserts. The add is recorded in history only after the insert commits.
func (s *Service) Add(draft models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := draft.Clone()
	t.DueDate = models.NormalizeDate(t.DueDate)
	t.RequestedDate = models.NormalizeDate(t.RequestedDate)
	t.DateStarted = models.NormalizeDate(t.DateStarted)
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Category == "" {
		t.Category = s.opts.DefaultCategory
	}

	if err := models.ValidateTask(t, s.opts.Roster, s.opts.Strict); err != nil {
		return models.Task{}, err
	}

	now := s.now()
	t.ID = s.nextID()
	t.CreatedDate = now.Format(models.DateLayout)
	t.CreatedBy = s.opts.User
	t.Completed = draft.Completed

	if err := s.store.Insert(t); err != nil {
		return models.Task{}, err
	}

	// The write is durable now, so the action must be on record even if
	// the reload below fails.
	s.history.Record(Action{Kind: ActionAdd, After: []models.Task{t.Clone()}})

	if err := s.reloadLocked(); err != nil {
		return t, err
	}
	return t, nil
}

// serviceManaged lists the fields a caller may not set through Update.
var serviceManaged = map[string]bool{
	"id":            true,
	"created_date":  true,
	"created_by":    true,
	"last_modified": true,
	"modified_by":   true,
}

// Update applies partial field updates to a task, validating the result
// before committing, and records an edit action with before/after
// snapshots.
func (s *Service) Update(id int, updates map[string]any) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, updates)
}

func (s *Service) updateLocked(id int, updates map[string]any) (models.Task, error) {
	cleaned := make(map[string]any, len(updates)+2)
	for key, value := range updates {
		if serviceManaged[key] {
			return models.Task{}, &models.ValidationError{Problems: []string{
				fmt.Sprintf("field %s is managed by the service and cannot be set", key),
			}}
		}
		switch key {
		case "due_date", "requested_date", "date_started":
			sv, ok := value.(string)
			if !ok {
				return models.Task{}, &models.ValidationError{Problems: []string{key + " must be a string"}}
			}
			cleaned[key] = models.NormalizeDate(sv)
		default:
			cleaned[key] = value
		}
	}

	before, err := s.store.FindByID(id)
	if err != nil {
		return models.Task{}, err
	}

	now := s.now()
	cleaned["last_modified"] = now.Format(models.TimestampLayout)
	cleaned["modified_by"] = s.opts.User

	if err := s.store.Begin(); err != nil {
		return models.Task{}, err
	}
	after, err := s.store.Update(id, cleaned)
	if err != nil {
		_ = s.store.Rollback()
		return models.Task{}, err
	}
	if err := models.ValidateTask(after, s.opts.Roster, s.opts.Strict); err != nil {
		_ = s.store.Rollback()
		return models.Task{}, err
	}
	if err := s.store.Commit(); err != nil {
		return models.Task{}, err
	}

	s.history.Record(Action{
		Kind:   ActionEdit,
		Before: []models.Task{before.Clone()},
		After:  []models.Task{after.Clone()},
	})

	if err := s.reloadLocked(); err != nil {
		return after, err
	}
	return after, nil
}

// SetCompletion flips the completed flag of every given task to the
// explicit target state. Resolving a mixed selection (force all done or
// all pending) is the caller's job; the service only flips what it is
// told. All updates commit in one transaction and form one edit action.
func (s *Service) SetCompletion(ids []int, target bool) error {
	return s.editEach(ids, func(models.Task) map[string]any {
		return map[string]any{"completed": target}
	})
}

// Assign sets assigned_to on every given task after checking the staff
// name against the roster.
func (s *Service) Assign(ids []int, staff string) error {
	check := models.Task{Title: staff, Priority: models.PriorityMedium, AssignedTo: staff}
	if err := models.ValidateTask(check, s.opts.Roster, false); err != nil {
		return err
	}
	return s.editEach(ids, func(models.Task) map[string]any {
		return map[string]any{"assigned_to": staff}
	})
}

// editEach applies a per-task update to every id inside one transaction
// and records a single edit action covering the whole selection.
func (s *Service) editEach(ids []int, updatesFor func(models.Task) map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	now := s.now()
	stamp := now.Format(models.TimestampLayout)

	if err := s.store.Begin(); err != nil {
		return err
	}
	var befores, afters []models.Task
	for _, id := range ids {
		before, err := s.store.FindByID(id)
		if err != nil {
			_ = s.store.Rollback()
			return err
		}
		updates := updatesFor(before)
		updates["last_modified"] = stamp
		updates["modified_by"] = s.opts.User
		after, err := s.store.Update(id, updates)
		if err != nil {
			_ = s.store.Rollback()
			return err
		}
		befores = append(befores, before.Clone())
		afters = append(afters, after.Clone())
	}
	if err := s.store.Commit(); err != nil {
		return err
	}

	s.history.Record(Action{Kind: ActionEdit, Before: befores, After: afters})
	return s.reloadLocked()
}

// Delete removes a batch of tasks with all-or-nothing semantics: if any
// id cannot be resolved or removed, the transaction rolls back, nothing
// is deleted, and no history entry is recorded. On success one delete
// action holds every removed task's full snapshot for one-shot undo.
func (s *Service) Delete(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ids, ActionDelete)
}

// ClearCompleted removes every completed task in one undoable batch.
func (s *Service) ClearCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int
	for _, t := range s.tasks {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.deleteLocked(ids, ActionClearCompleted); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Service) deleteLocked(ids []int, kind ActionKind) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.Begin(); err != nil {
		return err
	}

	var snapshots []models.Task
	var missing []int
	for _, id := range ids {
		t, err := s.store.FindByID(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				missing = append(missing, id)
				continue
			}
			_ = s.store.Rollback()
			return err
		}
		snapshots = append(snapshots, t.Clone())
	}
	if len(missing) > 0 {
		_ = s.store.Rollback()
		return &store.PartialDeleteError{Failed: missing}
	}

	_, failed, err := s.store.BatchDelete(ids)
	if err != nil {
		_ = s.store.Rollback()
		return err
	}
	if len(failed) > 0 {
		_ = s.store.Rollback()
		return &store.PartialDeleteError{Failed: failed}
	}

	if err := s.store.Commit(); err != nil {
		return err
	}

	s.history.Record(Action{Kind: kind, Before: snapshots})
	return s.reloadLocked()
}

// Duplicate copies an existing task under a fresh id with " (copy)"
// appended to the title. Provenance is stamped anew; reminders are not
// carried over.
func (s *Service) Duplicate(id int) (models.Task, error) {
	s.mu.Lock()
	original, err := s.findLocked(id)
	s.mu.Unlock()
	if err != nil {
		return models.Task{}, err
	}

	draft := original.Clone()
	draft.ID = 0
	draft.Title = original.Title + " (copy)"
	draft.CreatedDate = ""
	draft.CreatedBy = ""
	draft.LastModified = ""
	draft.ModifiedBy = ""
	draft.Reminders = nil
	return s.Add(draft)
}

// AddReminder attaches a one-shot reminder to a task. The timestamp must
// be in the future. Reminder changes are not recorded in history; a
// fired notification cannot be meaningfully replayed.
func (s *Service) AddReminder(id int, at time.Time) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !at.After(s.now()) {
		return models.Reminder{}, &models.ValidationError{Problems: []string{"reminder time must be in the future"}}
	}
	t, err := s.store.FindByID(id)
	if err != nil {
		return models.Reminder{}, err
	}

	r := models.Reminder{ID: uuid.NewString(), At: at.Format(time.RFC3339)}
	reminders := append(append([]models.Reminder{}, t.Reminders...), r)
	if _, err := s.store.Update(id, map[string]any{"reminders": reminders}); err != nil {
		return models.Reminder{}, err
	}
	if err := s.reloadLocked(); err != nil {
		return models.Reminder{}, err
	}
	return r, nil
}

// RemoveReminder detaches a reminder from a task, either after it fires
// or on user request.
func (s *Service) RemoveReminder(taskID int, reminderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.FindByID(taskID)
	if err != nil {
		return err
	}
	reminders := make([]models.Reminder, 0, len(t.Reminders))
	found := false
	for _, r := range t.Reminders {
		if r.ID == reminderID {
			found = true
			continue
		}
		reminders = append(reminders, r)
	}
	if !found {
		return fmt.Errorf("reminder %s on task %d: %w", reminderID, taskID, store.ErrNotFound)
	}
	if _, err := s.store.Update(taskID, map[string]any{"reminders": reminders}); err != nil {
		return err
	}
	return s.reloadLocked()
}

// fullFieldMap flattens a snapshot into a complete update map, provenance
// included, so a restore reproduces the record exactly as captured.
func fullFieldMap(t models.Task) map[string]any {
	return map[string]any{
		"title":          t.Title,
		"description":    t.Description,
		"priority":       t.Priority,
		"category":       t.Category,
		"due_date":       t.DueDate,
		"requested_date": t.RequestedDate,
		"date_started":   t.DateStarted,
		"completed":      t.Completed,
		"main_staff":     t.MainStaff,
		"assigned_to":    t.AssignedTo,
		"applied_vessel": t.AppliedVessel,
		"rev":            t.Rev,
		"drawing_no":     t.DrawingNo,
		"link":           t.Link,
		"sdb_link":       t.SDBLink,
		"request_no":     t.RequestNo,
		"qtd_mhr":        t.QtdMhr,
		"actual_mhr":     t.ActualMhr,
		"created_date":   t.CreatedDate,
		"created_by":     t.CreatedBy,
		"last_modified":  t.LastModified,
		"modified_by":    t.ModifiedBy,
		"reminders":      append([]models.Reminder{}, t.Reminders...),
	}
}

// restoreTask re-establishes a snapshot in the store. The original id is
// preserved, never regenerated. If the id is unexpectedly occupied by a
// live task the snapshot is applied as an update instead of an insert.
func (s *Service) restoreTask(t models.Task) error {
	_, err := s.store.FindByID(t.ID)
	switch {
	case err == nil:
		_, err = s.store.Update(t.ID, fullFieldMap(t))
		return err
	case errors.Is(err, store.ErrNotFound):
		return s.store.Insert(t)
	default:
		return err
	}
}

// applyStep restores the given snapshots and deletes the given ids inside
// one transaction. It is the shared engine for undo and redo.
func (s *Service) applyStep(restore []models.Task, remove []int) error {
	if err := s.store.Begin(); err != nil {
		return err
	}
	for _, t := range restore {
		if err := s.restoreTask(t); err != nil {
			_ = s.store.Rollback()
			return err
		}
	}
	for _, id := range remove {
		if err := s.store.Delete(id); err != nil {
			_ = s.store.Rollback()
			return err
		}
	}
	return s.store.Commit()
}

func taskIDs(tasks []models.Task) []int {
	ids := make([]int, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

// Undo reverses the most recent action. If the inverse cannot be applied
// the entry is pushed back unchanged and a ReplayError is returned; an
// action that was reported as applied is never silently lost.
func (s *Service) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.history.PopUndo()
	if !ok {
		return ErrNothingToUndo
	}

	var err error
	switch a.Kind {
	case ActionAdd:
		err = s.applyStep(nil, taskIDs(a.After))
	case ActionEdit:
		err = s.applyStep(a.Before, nil)
	case ActionDelete, ActionClearCompleted:
		err = s.applyStep(a.Before, nil)
	default:
		err = fmt.Errorf("unknown action kind %q", a.Kind)
	}
	if err != nil {
		s.history.PushUndo(a)
		return &ReplayError{Kind: a.Kind, Err: err}
	}

	s.history.PushRedo(a)
	return s.reloadLocked()
}

// Redo re-applies the most recently undone action, mirroring Undo.
func (s *Service) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.history.PopRedo()
	if !ok {
		return ErrNothingToRedo
	}

	var err error
	switch a.Kind {
	case ActionAdd:
		err = s.applyStep(a.After, nil)
	case ActionEdit:
		err = s.applyStep(a.After, nil)
	case ActionDelete, ActionClearCompleted:
		err = s.applyStep(nil, taskIDs(a.Before))
	default:
		err = fmt.Errorf("unknown action kind %q", a.Kind)
	}
	if err != nil {
		s.history.PushRedo(a)
		return &ReplayError{Kind: a.Kind, Err: err}
	}

	s.history.PushUndo(a)
	return s.reloadLocked()
}

// Refresh reloads the task set from the store. Backend timeouts surface
// as store.UnavailableError; the service never retries on its own.
func (s *Service) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

// RefreshAsync runs Refresh off the calling goroutine. Only one refresh
// is in flight at a time; requests arriving while one is outstanding are
// coalesced and the most recent completed refresh wins. onDone, when
// non-nil, receives the final result.
func (s *Service) RefreshAsync(onDone func(error)) {
	s.refreshMu.Lock()
	if s.refreshing {
		s.pendingRefresh = true
		s.refreshMu.Unlock()
		return
	}
	s.refreshing = true
	s.refreshMu.Unlock()

	go func() {
		var err error
		for {
			err = s.Refresh(context.Background())

			s.refreshMu.Lock()
			if !s.pendingRefresh {
				s.refreshing = false
				s.refreshMu.Unlock()
				break
			}
			s.pendingRefresh = false
			s.refreshMu.Unlock()
		}
		if onDone != nil {
			onDone(err)
		}
	}()
}
