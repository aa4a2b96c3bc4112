package remind

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/models"
)

// fakeSource is an in-memory Source with the same removal semantics as
// the mutation service.
type fakeSource struct {
	mu    sync.Mutex
	tasks []models.Task
}

func (f *fakeSource) List() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (f *fakeSource) RemoveReminder(taskID int, reminderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID != taskID {
			continue
		}
		kept := t.Reminders[:0:0]
		for _, r := range t.Reminders {
			if r.ID != reminderID {
				kept = append(kept, r)
			}
		}
		f.tasks[i].Reminders = kept
	}
	return nil
}

type fired struct {
	taskID     int
	reminderID string
}

func collectNotifications(ch chan fired) Notifier {
	return func(t models.Task, r models.Reminder) {
		ch <- fired{taskID: t.ID, reminderID: r.ID}
	}
}

func TestScheduler_FiresDueReminderOnce(t *testing.T) {
	src := &fakeSource{tasks: []models.Task{
		{ID: 1, Title: "Task", Reminders: []models.Reminder{
			{ID: "r1", At: time.Now().Add(50 * time.Millisecond).Format(time.RFC3339)},
		}},
	}}

	ch := make(chan fired, 4)
	sched := New(src, collectNotifications(ch))
	sched.Start()
	defer sched.Stop()

	select {
	case got := <-ch:
		assert.Equal(t, 1, got.taskID)
		assert.Equal(t, "r1", got.reminderID)
	case <-time.After(3 * time.Second):
		t.Fatal("reminder never fired")
	}

	// Fired reminders are removed, never redelivered.
	require.Eventually(t, func() bool {
		return len(src.List()[0].Reminders) == 0
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case got := <-ch:
		t.Fatalf("reminder fired twice: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestScheduler_RescheduleWakesForNewReminder(t *testing.T) {
	src := &fakeSource{tasks: []models.Task{{ID: 1, Title: "Task"}}}

	ch := make(chan fired, 4)
	sched := New(src, collectNotifications(ch))
	sched.Start()
	defer sched.Stop()

	// With no reminders the scheduler sleeps unarmed until poked.
	src.mu.Lock()
	src.tasks[0].Reminders = []models.Reminder{
		{ID: "r1", At: time.Now().Add(30 * time.Millisecond).Format(time.RFC3339)},
	}
	src.mu.Unlock()
	sched.Reschedule()

	select {
	case got := <-ch:
		assert.Equal(t, "r1", got.reminderID)
	case <-time.After(3 * time.Second):
		t.Fatal("reminder added after start never fired")
	}
}

func TestScheduler_DropsUnparseableTimestamps(t *testing.T) {
	src := &fakeSource{tasks: []models.Task{
		{ID: 1, Title: "Task", Reminders: []models.Reminder{
			{ID: "bad", At: "yesterday-ish"},
		}},
	}}

	ch := make(chan fired, 4)
	sched := New(src, collectNotifications(ch))
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return len(src.List()[0].Reminders) == 0
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case got := <-ch:
		t.Fatalf("unparseable reminder must not notify: %+v", got)
	default:
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	sched := New(src, func(models.Task, models.Reminder) {})
	sched.Start()

	sched.Stop()
	sched.Stop()
}
