package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/task"
)

// undoCmd reverses the most recent recorded action.
var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the most recent change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return replay(func(svc *task.Service) error { return svc.Undo() }, "Undid", task.ErrNothingToUndo)
	},
}

// redoCmd re-applies the most recently undone action.
var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the most recently undone change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return replay(func(svc *task.Service) error { return svc.Redo() }, "Redid", task.ErrNothingToRedo)
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
}

func replay(apply func(*task.Service) error, verb string, emptyErr error) error {
	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := apply(svc); err != nil {
		if errors.Is(err, emptyErr) {
			fmt.Println(emptyErr.Error() + ".")
			return nil
		}
		// On replay failure the history entry is kept; persist that.
		SaveHistory(svc)
		return fmt.Errorf("replay failed: %w", err)
	}
	SaveHistory(svc)

	fmt.Printf("%s the last change.\n", verb)
	return nil
}
