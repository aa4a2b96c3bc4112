// Package remind delivers one-shot task reminders. A single goroutine
// arms one timer for the earliest pending reminder and sleeps until it is
// due; there is no fixed-interval polling.
package remind

import (
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/models"
)

// Source supplies the current task set and removes a reminder once it has
// fired. *task.Service satisfies it.
type Source interface {
	List() []models.Task
	RemoveReminder(taskID int, reminderID string) error
}

// Notifier is invoked when a reminder comes due.
type Notifier func(t models.Task, r models.Reminder)

// Scheduler watches the task set and fires reminders at their timestamps.
type Scheduler struct {
	src    Source
	notify Notifier
	now    func() time.Time

	wake chan struct{}
	done chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a scheduler. Start must be called to begin delivery.
func New(src Source, notify Notifier) *Scheduler {
	return &Scheduler{
		src:    src,
		notify: notify,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (s *Scheduler) Start() {
	go s.run()
}

// Reschedule pokes the scheduler after the task set changed so it can
// re-arm its timer for the new earliest reminder.
func (s *Scheduler) Reschedule() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop cancels the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
}

func (s *Scheduler) run() {
	for {
		s.fireDue()

		var timerC <-chan time.Time
		var timer *time.Timer
		if next, ok := s.nextDue(); ok {
			timer = time.NewTimer(time.Until(next))
			timerC = timer.C
		}

		select {
		case <-s.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// fireDue notifies and removes every reminder whose time has passed.
func (s *Scheduler) fireDue() {
	now := s.now()
	for _, t := range s.src.List() {
		for _, r := range t.Reminders {
			at, err := time.Parse(time.RFC3339, r.At)
			if err != nil {
				// Unparseable timestamps are dropped so they cannot
				// wedge the schedule.
				_ = s.src.RemoveReminder(t.ID, r.ID)
				continue
			}
			if !at.After(now) {
				s.notify(t, r)
				_ = s.src.RemoveReminder(t.ID, r.ID)
			}
		}
	}
}

// nextDue finds the earliest pending reminder across all tasks.
func (s *Scheduler) nextDue() (time.Time, bool) {
	var next time.Time
	found := false
	for _, t := range s.src.List() {
		for _, r := range t.Reminders {
			at, err := time.Parse(time.RFC3339, r.At)
			if err != nil {
				continue
			}
			if !found || at.Before(next) {
				next = at
				found = true
			}
		}
	}
	return next, found
}
