// Package view turns the current task set plus filter and sort criteria
// into an ordered sequence for display. Everything here is pure; the
// underlying task set is never mutated.
package view

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/models"
)

// Filter selects which tasks are visible.
type Filter struct {
	Category      string
	MainStaff     string
	AssignedTo    string
	ShowCompleted bool
	// Search is a case-insensitive substring matched against title,
	// description, category and both staff fields.
	Search string
}

// Sort names the column to order by and the direction.
type Sort struct {
	Column  string
	Reverse bool
}

// Toggle computes the next sort state after the user selects a column:
// re-selecting the current column flips the direction, a new column
// starts ascending.
func Toggle(current Sort, column string) Sort {
	if current.Column == column {
		return Sort{Column: column, Reverse: !current.Reverse}
	}
	return Sort{Column: column}
}

// Project returns the filtered, ordered view of tasks. The input slice is
// left untouched.
func Project(tasks []models.Task, f Filter, s Sort) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	SortTasks(out, s)
	return out
}

// Matches reports whether a single task passes the filter.
func Matches(t models.Task, f Filter) bool {
	if !f.ShowCompleted && t.Completed {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.MainStaff != "" && !strings.EqualFold(t.MainStaff, f.MainStaff) {
		return false
	}
	if f.AssignedTo != "" && !strings.EqualFold(t.AssignedTo, f.AssignedTo) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystacks := []string{t.Title, t.Description, t.Category, t.MainStaff, t.AssignedTo}
		found := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortTasks orders tasks in place according to the sort criteria. An empty
// column leaves the input order unchanged.
func SortTasks(tasks []models.Task, s Sort) {
	if s.Column == "" {
		return
	}

	var less func(a, b models.Task) bool
	switch s.Column {
	case "id":
		less = func(a, b models.Task) bool { return a.ID < b.ID }
	case "qtd_mhr":
		less = func(a, b models.Task) bool { return a.QtdMhr < b.QtdMhr }
	case "actual_mhr":
		less = func(a, b models.Task) bool { return a.ActualMhr < b.ActualMhr }
	case "priority":
		less = func(a, b models.Task) bool {
			return priorityRank(a.Priority) < priorityRank(b.Priority)
		}
	case "status":
		less = func(a, b models.Task) bool {
			ac, ak := statusKey(a)
			bc, bk := statusKey(b)
			if ac != bc {
				return ac < bc
			}
			return ak < bk
		}
	case "rev":
		less = func(a, b models.Task) bool {
			an, aNum := revKey(a.Rev)
			bn, bNum := revKey(b.Rev)
			if aNum && bNum {
				return an < bn
			}
			if aNum != bNum {
				return aNum
			}
			return strings.ToLower(a.Rev) < strings.ToLower(b.Rev)
		}
	default:
		less = func(a, b models.Task) bool {
			return strings.ToLower(columnValue(a, s.Column)) < strings.ToLower(columnValue(b, s.Column))
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if s.Reverse {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}

// priorityRank sorts by severity: high before medium before low,
// anything unrecognized last.
func priorityRank(p models.TaskPriority) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	case models.PriorityLow:
		return 2
	default:
		return 3
	}
}

// statusKey orders overdue tasks first, then by ascending days until
// due, then tasks without a due date, with completed tasks last.
func statusKey(t models.Task) (class int, days int) {
	if t.Completed {
		return 2, 0
	}
	if t.DueDate == "" {
		return 1, 0
	}
	due, err := time.Parse(models.DateLayout, t.DueDate)
	if err != nil {
		return 1, 0
	}
	today := time.Now().Truncate(24 * time.Hour)
	return 0, int(due.Sub(today).Hours() / 24)
}

var revDigits = regexp.MustCompile(`(\d+)`)

// revKey extracts a numeric key from a revision string like "3", "Rev 2"
// or "R12". The second return reports whether a number was found.
func revKey(rev string) (int, bool) {
	m := revDigits.FindString(rev)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func columnValue(t models.Task, column string) string {
	switch column {
	case "title":
		return t.Title
	case "description":
		return t.Description
	case "category":
		return t.Category
	case "due_date":
		return t.DueDate
	case "requested_date":
		return t.RequestedDate
	case "date_started":
		return t.DateStarted
	case "main_staff":
		return t.MainStaff
	case "assigned_to":
		return t.AssignedTo
	case "applied_vessel":
		return t.AppliedVessel
	case "drawing_no":
		return t.DrawingNo
	case "request_no":
		return t.RequestNo
	case "created_date":
		return t.CreatedDate
	case "created_by":
		return t.CreatedBy
	case "last_modified":
		return t.LastModified
	case "modified_by":
		return t.ModifiedBy
	default:
		return t.Title
	}
}
