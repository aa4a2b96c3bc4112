package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/taskdeck/taskdeck/internal/view"
	"github.com/taskdeck/taskdeck/models"
)

var listFlags struct {
	category      string
	mainStaff     string
	assignedTo    string
	showCompleted bool
	search        string
	sortColumn    string
	sortDesc      bool
}

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with filtering and sorting",
	Long: `List task records. Filters combine; the free-text search matches
title, description, category and staff fields case-insensitively.

Examples:
  taskdeck list --category general
  taskdeck list --search aurora --completed
  taskdeck list --sort priority
  taskdeck list --sort status --desc`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFlags.category, "category", "", "filter by category")
	listCmd.Flags().StringVar(&listFlags.mainStaff, "staff", "", "filter by main staff")
	listCmd.Flags().StringVar(&listFlags.assignedTo, "assigned", "", "filter by assigned staff")
	listCmd.Flags().BoolVar(&listFlags.showCompleted, "completed", false, "include completed tasks")
	listCmd.Flags().StringVarP(&listFlags.search, "search", "s", "", "free-text search")
	listCmd.Flags().StringVar(&listFlags.sortColumn, "sort", "", "sort column (e.g. priority, status, due_date, title)")
	listCmd.Flags().BoolVar(&listFlags.sortDesc, "desc", false, "sort descending")
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	dueSoonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

func runList(cmd *cobra.Command, args []string) error {
	svc, st, err := NewService()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	projected := view.Project(svc.List(), view.Filter{
		Category:      listFlags.category,
		MainStaff:     listFlags.mainStaff,
		AssignedTo:    listFlags.assignedTo,
		ShowCompleted: listFlags.showCompleted,
		Search:        listFlags.search,
	}, view.Sort{
		Column:  listFlags.sortColumn,
		Reverse: listFlags.sortDesc,
	})

	if viperJSON() {
		return printJSON(projected)
	}

	if len(projected) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	rows := [][]string{{"ID", "Title", "Priority", "Category", "Due", "Staff", "Assigned", "Status"}}
	for _, t := range projected {
		status := "pending"
		if t.Completed {
			status = "done"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.ID), t.Title, string(t.Priority), t.Category,
			t.DueDate, t.MainStaff, t.AssignedTo, status,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for ri, row := range rows {
		var cells []string
		for i, cell := range row {
			cells = append(cells, pad(cell, widths[i]))
		}
		line := strings.Join(cells, "  ")
		if ri == 0 {
			fmt.Println(headerStyle.Render(line))
			continue
		}
		fmt.Println(styleFor(projected[ri-1]).Render(line))
	}

	sum := svc.Summary()
	fmt.Println(summaryStyle.Render(
		fmt.Sprintf("%d total, %d completed, %d pending", sum.Total, sum.Completed, sum.Pending)))
	return nil
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// styleFor colors a row by due-date urgency, matching the desktop UI:
// overdue red, due within three days yellow, completed struck through.
func styleFor(t models.Task) lipgloss.Style {
	if t.Completed {
		return doneStyle
	}
	if t.DueDate == "" {
		return lipgloss.NewStyle()
	}
	due, err := time.Parse(models.DateLayout, t.DueDate)
	if err != nil {
		return lipgloss.NewStyle()
	}
	days := int(time.Until(due).Hours() / 24)
	switch {
	case days < 0:
		return overdueStyle
	case days <= 3:
		return dueSoonStyle
	default:
		return lipgloss.NewStyle()
	}
}
