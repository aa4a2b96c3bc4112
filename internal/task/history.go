package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/taskdeck/taskdeck/models"
)

// ActionKind identifies one variant of the closed Action union.
type ActionKind string

const (
	ActionAdd            ActionKind = "add"
	ActionEdit           ActionKind = "edit"
	ActionDelete         ActionKind = "delete"
	ActionClearCompleted ActionKind = "clear_completed"
)

// Action is one reversible mutation. Before and After hold deep snapshots
// of every affected task, sufficient to reconstruct the records without
// re-deriving provenance. A batch delete is a single delete Action with
// one snapshot per removed task, so one undo restores the whole batch.
type Action struct {
	Kind   ActionKind    `json:"kind"`
	Before []models.Task `json:"before,omitempty"`
	After  []models.Task `json:"after,omitempty"`
}

// ReplayError reports that the inverse of a recorded action could not be
// applied; the action has been pushed back onto its stack unchanged.
type ReplayError struct {
	Kind ActionKind
	Err  error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("could not replay %s action: %v", e.Kind, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// DefaultHistoryDepth bounds the undo stack when no depth is configured.
const DefaultHistoryDepth = 10

// History is a bounded undo/redo log. Pushing beyond the bound evicts the
// oldest entry (FIFO), which then becomes permanently unrecoverable.
// Recording any new action clears the redo stack.
type History struct {
	maxDepth int
	undo     []Action
	redo     []Action
}

// NewHistory creates a history bounded to maxDepth entries. Non-positive
// depths fall back to DefaultHistoryDepth.
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = DefaultHistoryDepth
	}
	return &History{maxDepth: maxDepth}
}

// Record pushes an action onto the undo stack and clears the redo stack.
func (h *History) Record(a Action) {
	h.undo = append(h.undo, a)
	if len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
	h.redo = nil
}

// PopUndo removes and returns the most recent undoable action.
func (h *History) PopUndo() (Action, bool) {
	if len(h.undo) == 0 {
		return Action{}, false
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return a, true
}

// PushUndo returns an action to the undo stack, used both after a
// successful redo and to restore an entry whose inverse failed to apply.
func (h *History) PushUndo(a Action) {
	h.undo = append(h.undo, a)
	if len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
}

// PopRedo removes and returns the most recent redoable action.
func (h *History) PopRedo() (Action, bool) {
	if len(h.redo) == 0 {
		return Action{}, false
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return a, true
}

// PushRedo returns an action to the redo stack.
func (h *History) PushRedo(a Action) {
	h.redo = append(h.redo, a)
}

// UndoLen reports how many actions can be undone.
func (h *History) UndoLen() int { return len(h.undo) }

// RedoLen reports how many actions can be redone.
func (h *History) RedoLen() int { return len(h.redo) }

// historyDocument is the persisted shape of a History.
type historyDocument struct {
	MaxDepth int      `json:"maxDepth"`
	Undo     []Action `json:"undo"`
	Redo     []Action `json:"redo"`
}

// LoadHistory reads a persisted history from path. A missing file yields
// an empty history bounded to maxDepth.
func LoadHistory(path string, maxDepth int) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewHistory(maxDepth), nil
		}
		return nil, fmt.Errorf("read history file %s: %w", path, err)
	}
	var doc historyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal history file %s: %w", path, err)
	}
	h := NewHistory(maxDepth)
	h.undo = doc.Undo
	h.redo = doc.Redo
	if len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
	return h, nil
}

// Save writes the history to path via an atomic rename.
func (h *History) Save(path string) error {
	doc := historyDocument{MaxDepth: h.maxDepth, Undo: h.undo, Redo: h.redo}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename history file to %s: %w", path, err)
	}
	return nil
}
