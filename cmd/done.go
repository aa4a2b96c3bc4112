package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// doneCmd marks tasks completed. A mixed selection is not resolved
// implicitly; the target state is explicit in the command used.
var doneCmd = &cobra.Command{
	Use:   "done <id> [id...]",
	Short: "Mark tasks as completed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompletion(args, true)
	},
}

// undoneCmd marks tasks pending again.
var undoneCmd = &cobra.Command{
	Use:   "undone <id> [id...]",
	Short: "Mark tasks as pending",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompletion(args, false)
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
}

func setCompletion(args []string, target bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := svc.SetCompletion(ids, target); err != nil {
		return fmt.Errorf("update completion: %w", err)
	}
	SaveHistory(svc)

	state := "completed"
	if !target {
		state = "pending"
	}
	fmt.Printf("%d task(s) marked %s\n", len(ids), state)
	return nil
}
