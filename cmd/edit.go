package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// editCmd represents the edit command. Only flags the user passes become
// updates; everything else is left untouched.
var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit fields of an existing task",
	Long: `Edit a task. Only the flags you pass are changed.

Examples:
  taskdeck edit 3 --title "Recalibrate sensor" --priority low
  taskdeck edit 7 --due 2025-04-01 --assign Jude`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().String("title", "", "task title")
	editCmd.Flags().StringP("description", "d", "", "task description")
	editCmd.Flags().StringP("priority", "p", "", "priority (low, medium, high)")
	editCmd.Flags().String("category", "", "task category")
	editCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	editCmd.Flags().String("requested", "", "requested date (YYYY-MM-DD)")
	editCmd.Flags().String("started", "", "date started (YYYY-MM-DD)")
	editCmd.Flags().String("staff", "", "main staff")
	editCmd.Flags().String("assign", "", "assigned staff")
	editCmd.Flags().String("vessel", "", "applied vessel")
	editCmd.Flags().String("rev", "", "revision number")
	editCmd.Flags().String("drawing", "", "drawing number")
	editCmd.Flags().String("link", "", "drawing link")
	editCmd.Flags().String("sdb-link", "", "SDB link")
	editCmd.Flags().String("request", "", "request number")
	editCmd.Flags().Int("qtd-mhr", 0, "quoted man-hours")
	editCmd.Flags().Int("actual-mhr", 0, "actual man-hours")
}

// editFlagFields maps flag names to persisted field names.
var editFlagFields = map[string]string{
	"title":       "title",
	"description": "description",
	"priority":    "priority",
	"category":    "category",
	"due":         "due_date",
	"requested":   "requested_date",
	"started":     "date_started",
	"staff":       "main_staff",
	"assign":      "assigned_to",
	"vessel":      "applied_vessel",
	"rev":         "rev",
	"drawing":     "drawing_no",
	"link":        "link",
	"sdb-link":    "sdb_link",
	"request":     "request_no",
}

var editIntFlagFields = map[string]string{
	"qtd-mhr":    "qtd_mhr",
	"actual-mhr": "actual_mhr",
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid task id %q", args[0])
	}

	updates := make(map[string]any)
	for flag, field := range editFlagFields {
		if cmd.Flags().Changed(flag) {
			value, _ := cmd.Flags().GetString(flag)
			updates[field] = value
		}
	}
	for flag, field := range editIntFlagFields {
		if cmd.Flags().Changed(flag) {
			value, _ := cmd.Flags().GetInt(flag)
			updates[field] = value
		}
	}
	if len(updates) == 0 {
		return fmt.Errorf("no fields to change; pass at least one flag")
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	updated, err := svc.Update(id, updates)
	if err != nil {
		return fmt.Errorf("edit task %d: %w", id, err)
	}
	SaveHistory(svc)

	if viperJSON() {
		return printJSON(updated)
	}
	fmt.Printf("Updated task %d: %s\n", updated.ID, updated.Title)
	return nil
}
