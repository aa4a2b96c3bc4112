package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/remind"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/models"
)

const reminderLayout = "2006-01-02 15:04"

// remindCmd groups reminder management.
var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Manage one-shot task reminders",
}

var remindAddCmd = &cobra.Command{
	Use:   "add <id> <time>",
	Short: "Attach a reminder to a task",
	Long: `Attach a one-shot reminder to a task. The time must be in the future,
formatted as "YYYY-MM-DD HH:MM".

Example:
  taskdeck remind add 3 "2025-03-01 09:00"`,
	Args: cobra.ExactArgs(2),
	RunE: runRemindAdd,
}

var remindRemoveCmd = &cobra.Command{
	Use:   "remove <id> <reminder-id>",
	Short: "Remove a pending reminder",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemindRemove,
}

var remindWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run in the foreground and fire reminders as they come due",
	RunE:  runRemindWatch,
}

func init() {
	rootCmd.AddCommand(remindCmd)
	remindCmd.AddCommand(remindAddCmd)
	remindCmd.AddCommand(remindRemoveCmd)
	remindCmd.AddCommand(remindWatchCmd)
}

func runRemindAdd(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}
	at, err := time.ParseInLocation(reminderLayout, args[1], time.Local)
	if err != nil {
		return fmt.Errorf("invalid reminder time %q, want YYYY-MM-DD HH:MM", args[1])
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	r, err := svc.AddReminder(id, at)
	if err != nil {
		return fmt.Errorf("add reminder: %w", err)
	}
	fmt.Printf("Reminder %s set for task %d at %s\n", r.ID, id, args[1])
	return nil
}

func runRemindRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := svc.RemoveReminder(id, args[1]); err != nil {
		return fmt.Errorf("remove reminder: %w", err)
	}
	fmt.Printf("Reminder %s removed from task %d\n", args[1], id)
	return nil
}

// watchRefreshInterval is how often the watch loop reloads the task set
// so reminders added by other invocations get armed. The firing timer
// itself stays event-driven; this wake only feeds it fresh input.
const watchRefreshInterval = 30 * time.Second

func runRemindWatch(cmd *cobra.Command, args []string) error {
	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sched := remind.New(svc, func(t models.Task, r models.Reminder) {
		fmt.Printf("\aReminder: %s", t.Title)
		if t.Description != "" {
			fmt.Printf(": %s", t.Description)
		}
		fmt.Println()
	})
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Watching for reminders. Press Ctrl-C to stop.")
	watchReminders(ctx, svc, sched, watchRefreshInterval)
	return nil
}

// watchReminders reloads the task set on a coarse interval and pokes the
// scheduler so it re-arms for whatever is now the earliest reminder.
// Returns when ctx is cancelled.
func watchReminders(ctx context.Context, svc *task.Service, sched *remind.Scheduler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Refresh(ctx); err != nil {
				LogError("could not refresh tasks while watching", err)
				continue
			}
			sched.Reschedule()
		}
	}
}
