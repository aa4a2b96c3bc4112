package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/store"
)

var deleteYes bool

// deleteCmd removes tasks. The whole batch is all-or-nothing: if any id
// does not exist nothing is deleted. A deleted batch can be restored
// with a single undo.
var deleteCmd = &cobra.Command{
	Use:     "delete <id> [id...]",
	Aliases: []string{"rm"},
	Short:   "Delete tasks (undoable as one batch)",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if !deleteYes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete %d task(s)", len(ids)),
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

	if err := svc.Delete(ids); err != nil {
		var pde *store.PartialDeleteError
		if errors.As(err, &pde) {
			return fmt.Errorf("nothing deleted: ids %v could not be removed", pde.Failed)
		}
		return fmt.Errorf("delete tasks: %w", err)
	}
	SaveHistory(svc)

	fmt.Printf("Deleted %d task(s). Use 'taskdeck undo' to restore.\n", len(ids))
	return nil
}
