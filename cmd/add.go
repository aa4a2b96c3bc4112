package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/models"
)

var addFlags struct {
	description   string
	priority      string
	category      string
	dueDate       string
	requestedDate string
	dateStarted   string
	mainStaff     string
	assignedTo    string
	appliedVessel string
	rev           string
	drawingNo     string
	link          string
	sdbLink       string
	requestNo     string
	qtdMhr        string
	actualMhr     string
}

// addCmd represents the add command.
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Long: `Add a new task record. The title is required; every other field is
optional unless strict mode is configured. Dates use YYYY-MM-DD.

Examples:
  taskdeck add "Calibrate sensor" --priority high --due 2025-03-01
  taskdeck add "Update GA drawing" --vessel "MV Aurora" --rev 2 --staff Jay`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addFlags.description, "description", "d", "", "task description")
	addCmd.Flags().StringVarP(&addFlags.priority, "priority", "p", "medium", "priority (low, medium, high)")
	addCmd.Flags().StringVar(&addFlags.category, "category", "", "task category")
	addCmd.Flags().StringVar(&addFlags.dueDate, "due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addFlags.requestedDate, "requested", "", "requested date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addFlags.dateStarted, "started", "", "date started (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addFlags.mainStaff, "staff", "", "main staff (must be on the roster)")
	addCmd.Flags().StringVar(&addFlags.assignedTo, "assign", "", "assigned staff (must be on the roster)")
	addCmd.Flags().StringVar(&addFlags.appliedVessel, "vessel", "", "applied vessel")
	addCmd.Flags().StringVar(&addFlags.rev, "rev", "", "revision number")
	addCmd.Flags().StringVar(&addFlags.drawingNo, "drawing", "", "drawing number")
	addCmd.Flags().StringVar(&addFlags.link, "link", "", "drawing link")
	addCmd.Flags().StringVar(&addFlags.sdbLink, "sdb-link", "", "SDB link")
	addCmd.Flags().StringVar(&addFlags.requestNo, "request", "", "request number")
	addCmd.Flags().StringVar(&addFlags.qtdMhr, "qtd-mhr", "", "quoted man-hours")
	addCmd.Flags().StringVar(&addFlags.actualMhr, "actual-mhr", "", "actual man-hours")
}

func runAdd(cmd *cobra.Command, args []string) error {
	qtd, err := models.ParseManHours("qtd_mhr", addFlags.qtdMhr)
	if err != nil {
		return err
	}
	actual, err := models.ParseManHours("actual_mhr", addFlags.actualMhr)
	if err != nil {
		return err
	}

	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	created, err := svc.Add(models.Task{
		Title:         args[0],
		Description:   addFlags.description,
		Priority:      models.TaskPriority(addFlags.priority),
		Category:      addFlags.category,
		DueDate:       addFlags.dueDate,
		RequestedDate: addFlags.requestedDate,
		DateStarted:   addFlags.dateStarted,
		MainStaff:     addFlags.mainStaff,
		AssignedTo:    addFlags.assignedTo,
		AppliedVessel: addFlags.appliedVessel,
		Rev:           addFlags.rev,
		DrawingNo:     addFlags.drawingNo,
		Link:          addFlags.link,
		SDBLink:       addFlags.sdbLink,
		RequestNo:     addFlags.requestNo,
		QtdMhr:        qtd,
		ActualMhr:     actual,
	})
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid task: %w", verr)
		}
		return fmt.Errorf("add task: %w", err)
	}
	SaveHistory(svc)

	if viperJSON() {
		return printJSON(created)
	}
	fmt.Printf("Added task %d: %s\n", created.ID, created.Title)
	return nil
}
