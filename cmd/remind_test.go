package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/internal/remind"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/models"
	"github.com/taskdeck/taskdeck/store"
)

func serviceOverFile(t *testing.T, path string) *task.Service {
	t.Helper()

	st := store.NewFileTaskStore()
	require.NoError(t, st.Initialize(map[string]string{
		"dataFile":       path,
		"dataFileFormat": "json",
	}))
	t.Cleanup(func() { _ = st.Close() })

	svc, err := task.NewService(st, task.Options{
		DefaultCategory: "general",
		User:            "tester",
		HistoryDepth:    10,
	})
	require.NoError(t, err)
	return svc
}

// A watch session must notice reminders created by a separate session
// against the same data file.
func TestWatchReminders_SeesOtherSessionChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")

	watcher := serviceOverFile(t, path)
	other := serviceOverFile(t, path)

	fired := make(chan string, 1)
	sched := remind.New(watcher, func(tk models.Task, r models.Reminder) {
		select {
		case fired <- tk.Title:
		default:
		}
	})
	sched.Start()
	defer sched.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchReminders(ctx, watcher, sched, 20*time.Millisecond)

	// The watcher started with an empty set; now another session adds a
	// task with a near-future reminder.
	created, err := other.Add(models.Task{Title: "Calibrate sensor"})
	require.NoError(t, err)
	_, err = other.AddReminder(created.ID, time.Now().Add(500*time.Millisecond))
	require.NoError(t, err)

	select {
	case title := <-fired:
		assert.Equal(t, "Calibrate sensor", title)
	case <-time.After(10 * time.Second):
		t.Fatal("reminder added by another session never fired")
	}
}
