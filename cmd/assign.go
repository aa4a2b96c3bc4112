package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// assignCmd assigns tasks to a staff member from the configured roster.
var assignCmd = &cobra.Command{
	Use:   "assign <staff> <id> [id...]",
	Short: "Assign tasks to a staff member",
	Long: `Assign one or more tasks to a staff member. The name must be on the
configured roster.

Example:
  taskdeck assign Jay 3 7 12`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	staff := args[0]
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := svc.Assign(ids, staff); err != nil {
		return fmt.Errorf("assign tasks: %w", err)
	}
	SaveHistory(svc)

	fmt.Printf("%d task(s) assigned to %s\n", len(ids), staff)
	return nil
}
