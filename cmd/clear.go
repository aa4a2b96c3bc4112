package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var clearYes bool

// clearCmd removes every completed task as one undoable batch.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all completed tasks",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		prompt := promptui.Prompt{
			Label:     "Clear all completed tasks",
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	n, err := svc.ClearCompleted()
	if err != nil {
		return fmt.Errorf("clear completed tasks: %w", err)
	}
	SaveHistory(svc)

	if n == 0 {
		fmt.Println("No completed tasks to clear.")
		return nil
	}
	fmt.Printf("Cleared %d completed task(s). Use 'taskdeck undo' to restore.\n", n)
	return nil
}
