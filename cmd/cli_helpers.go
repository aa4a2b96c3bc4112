package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/store"
)

// NewStore builds the persistence backend selected by configuration.
func NewStore() (store.TaskStore, error) {
	cfg := GetConfig()
	switch cfg.Data.Backend {
	case "sqlite":
		st := store.NewSQLiteTaskStore()
		if err := st.Initialize(map[string]string{"sqlitePath": cfg.Data.SQLitePath}); err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		return st, nil
	default:
		st := store.NewFileTaskStore()
		if err := st.Initialize(map[string]string{
			"dataFile":       cfg.Data.File,
			"dataFileFormat": cfg.Data.Format,
		}); err != nil {
			return nil, fmt.Errorf("initialize file store: %w", err)
		}
		return st, nil
	}
}

// NewService opens the store and wires a mutation service over it,
// loading the persisted undo/redo history. If the backend is unreachable
// the service still comes up with an empty task set and a warning, so the
// CLI stays usable.
func NewService() (*task.Service, store.TaskStore, error) {
	st, err := NewStore()
	if err != nil {
		return nil, nil, err
	}

	cfg := GetConfig()
	history, err := task.LoadHistory(historyFilePath(), cfg.History.MaxDepth)
	if err != nil {
		LogError("could not load history, starting empty", err)
		history = task.NewHistory(cfg.History.MaxDepth)
	}

	svc, err := task.NewService(st, task.Options{
		Roster:          cfg.Roster,
		DefaultCategory: cfg.Defaults.Category,
		User:            cfg.User.Name,
		Strict:          cfg.Strict,
		HistoryDepth:    cfg.History.MaxDepth,
		History:         history,
	})
	if err != nil {
		if store.IsUnavailable(err) {
			PrintError("Warning: store unreachable, showing an empty task list.", err)
		} else {
			_ = st.Close()
			return nil, nil, err
		}
	}
	return svc, st, nil
}

// SaveHistory persists the undo/redo log after a mutating command.
func SaveHistory(svc *task.Service) {
	if err := svc.History().Save(historyFilePath()); err != nil {
		LogError("could not save history", err)
	}
}

// parseIDs converts command arguments into task ids.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid task id %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no task ids given")
	}
	return ids, nil
}

// viperJSON reports whether --json output was requested.
func viperJSON() bool {
	return jsonOut
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
