package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd prints the status summary exposed to the UI layer.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show total, completed and pending counts",
	RunE:  runStats,
}

// duplicateCmd copies a task under a fresh id.
var duplicateCmd = &cobra.Command{
	Use:   "duplicate <id>",
	Short: "Duplicate a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runDuplicate,
}

// refreshCmd forces a reload from the backing store.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the task set from the store",
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(duplicateCmd)
	rootCmd.AddCommand(refreshCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sum := svc.Summary()
	if viperJSON() {
		return printJSON(sum)
	}
	fmt.Printf("Total: %d\nCompleted: %d\nPending: %d\n", sum.Total, sum.Completed, sum.Pending)
	return nil
}

func runDuplicate(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	created, err := svc.Duplicate(ids[0])
	if err != nil {
		return fmt.Errorf("duplicate task %d: %w", ids[0], err)
	}
	SaveHistory(svc)

	fmt.Printf("Duplicated as task %d: %s\n", created.ID, created.Title)
	return nil
}

func runRefresh(cmd *cobra.Command, args []string) error {
	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := svc.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	sum := svc.Summary()
	fmt.Printf("Reloaded %d task(s).\n", sum.Total)
	return nil
}
