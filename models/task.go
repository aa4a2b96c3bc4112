package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskPriority represents the priority levels of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

const (
	// DateLayout is the calendar date format used for due_date,
	// requested_date, date_started and created_date.
	DateLayout = "2006-01-02"
	// TimestampLayout is the format used for last_modified.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Reminder is a one-shot future notification attached to a task. It is
// removed once fired.
type Reminder struct {
	ID string `json:"id" yaml:"id" toml:"id"`
	At string `json:"at" yaml:"at" toml:"at"` // RFC3339 timestamp
}

// Task represents a unit of work tracked by the system. Field names match
// the persisted document layout exactly; dates are stored as YYYY-MM-DD
// strings with invalid values normalized to empty rather than rejected.
type Task struct {
	ID          int          `json:"id" yaml:"id" toml:"id"`
	Title       string       `json:"title" yaml:"title" toml:"title" validate:"required"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Priority    TaskPriority `json:"priority" yaml:"priority" toml:"priority" validate:"required,oneof=low medium high"`
	Category    string       `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`

	DueDate       string `json:"due_date,omitempty" yaml:"due_date,omitempty" toml:"due_date,omitempty"`
	RequestedDate string `json:"requested_date,omitempty" yaml:"requested_date,omitempty" toml:"requested_date,omitempty"`
	DateStarted   string `json:"date_started,omitempty" yaml:"date_started,omitempty" toml:"date_started,omitempty"`

	Completed  bool   `json:"completed" yaml:"completed" toml:"completed"`
	MainStaff  string `json:"main_staff,omitempty" yaml:"main_staff,omitempty" toml:"main_staff,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty" toml:"assigned_to,omitempty"`

	// Drawing-request extension fields.
	AppliedVessel string `json:"applied_vessel,omitempty" yaml:"applied_vessel,omitempty" toml:"applied_vessel,omitempty"`
	Rev           string `json:"rev,omitempty" yaml:"rev,omitempty" toml:"rev,omitempty"`
	DrawingNo     string `json:"drawing_no,omitempty" yaml:"drawing_no,omitempty" toml:"drawing_no,omitempty"`
	Link          string `json:"link,omitempty" yaml:"link,omitempty" toml:"link,omitempty"`
	SDBLink       string `json:"sdb_link,omitempty" yaml:"sdb_link,omitempty" toml:"sdb_link,omitempty"`
	RequestNo     string `json:"request_no,omitempty" yaml:"request_no,omitempty" toml:"request_no,omitempty"`
	QtdMhr        int    `json:"qtd_mhr" yaml:"qtd_mhr" toml:"qtd_mhr" validate:"gte=0"`
	ActualMhr     int    `json:"actual_mhr" yaml:"actual_mhr" toml:"actual_mhr" validate:"gte=0"`

	// Provenance fields, stamped by the mutation service and never
	// client-supplied.
	CreatedDate  string `json:"created_date,omitempty" yaml:"created_date,omitempty" toml:"created_date,omitempty"`
	CreatedBy    string `json:"created_by,omitempty" yaml:"created_by,omitempty" toml:"created_by,omitempty"`
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty" toml:"last_modified,omitempty"`
	ModifiedBy   string `json:"modified_by,omitempty" yaml:"modified_by,omitempty" toml:"modified_by,omitempty"`

	Reminders []Reminder `json:"reminders,omitempty" yaml:"reminders,omitempty" toml:"reminders,omitempty"`
}

// TaskList represents a collection of tasks as persisted in a file-backed
// store document.
type TaskList struct {
	Tasks      []Task `json:"tasks" yaml:"tasks" toml:"tasks"`
	TotalCount int    `json:"totalCount" yaml:"totalCount" toml:"totalCount"`
}

// Clone returns a deep copy of the task, safe to retain as an undo
// snapshot while the live record keeps changing.
func (t Task) Clone() Task {
	c := t
	if t.Reminders != nil {
		c.Reminders = make([]Reminder, len(t.Reminders))
		copy(c.Reminders, t.Reminders)
	}
	return c
}

// global validator instance
var validate = validator.New()

// ValidationError reports one or more field-level problems with
// user-supplied task data. It never reaches storage.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NormalizeDate returns s unchanged when it is a valid YYYY-MM-DD date and
// the empty string otherwise. Invalid dates are treated as absent, not
// rejected.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ""
	}
	return s
}

// ParseManHours coerces a man-hour counter field. Empty defaults to 0;
// anything other than a non-negative integer is an error.
func ParseManHours(field, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", field, s)
	}
	return n, nil
}

// ValidateTask checks a task against the entity rules. It is pure and
// never touches storage. The roster is the closed set of known staff
// identifiers; when strict is set the full drawing-request field set is
// required, matching the add/edit form of the desktop application.
func ValidateTask(t Task, roster []string, strict bool) error {
	var problems []string

	if err := validate.Struct(t); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validate task: %w", err)
		}
		for _, e := range verrs {
			switch e.Field() {
			case "Title":
				problems = append(problems, "title is required")
			case "Priority":
				problems = append(problems, fmt.Sprintf("priority must be one of low, medium, high, got %q", e.Value()))
			case "QtdMhr":
				problems = append(problems, "qtd_mhr must be a non-negative integer")
			case "ActualMhr":
				problems = append(problems, "actual_mhr must be a non-negative integer")
			default:
				problems = append(problems, fmt.Sprintf("field %s failed rule %s", e.Field(), e.Tag()))
			}
		}
	}

	if t.MainStaff != "" && !rosterContains(roster, t.MainStaff) {
		problems = append(problems, fmt.Sprintf("main_staff must be one of: %s", strings.Join(roster, ", ")))
	}
	if t.AssignedTo != "" && !rosterContains(roster, t.AssignedTo) {
		problems = append(problems, fmt.Sprintf("assigned_to must be one of: %s", strings.Join(roster, ", ")))
	}

	if t.Rev != "" {
		if n, err := strconv.Atoi(t.Rev); err != nil || n < 0 {
			problems = append(problems, "rev must be a non-negative integer")
		}
	}

	if strict {
		required := []struct {
			name, value string
		}{
			{"request_no", t.RequestNo},
			{"applied_vessel", t.AppliedVessel},
			{"rev", t.Rev},
			{"link", t.Link},
			{"sdb_link", t.SDBLink},
			{"main_staff", t.MainStaff},
			{"category", t.Category},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				problems = append(problems, r.name+" is required")
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func rosterContains(roster []string, name string) bool {
	for _, r := range roster {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}
