package store

import (
	"fmt"

	"github.com/taskdeck/taskdeck/models"
)

// applyUpdates sets task fields from a map keyed by persisted field name.
// Unknown keys are rejected so that a typo cannot silently drop a change.
func applyUpdates(task *models.Task, updates map[string]any) error {
	for key, value := range updates {
		switch key {
		case "title":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.Title = s
		case "description":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.Description = s
		case "priority":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.Priority = models.TaskPriority(s)
		case "category":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.Category = s
		case "due_date":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.DueDate = s
		case "requested_date":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.RequestedDate = s
		case "date_started":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.DateStarted = s
		case "completed":
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("field %s requires a bool, got %T", key, value)
			}
			task.Completed = b
		case "main_staff":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.MainStaff = s
		case "assigned_to":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.AssignedTo = s
		case "applied_vessel":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.AppliedVessel = s
		case "rev":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.Rev = s
		case "drawing_no":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.DrawingNo = s
		case "link":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.Link = s
		case "sdb_link":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.SDBLink = s
		case "request_no":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.RequestNo = s
		case "qtd_mhr":
			n, err := asInt(key, value)
			if err != nil {
				return err
			}
			task.QtdMhr = n
		case "actual_mhr":
			n, err := asInt(key, value)
			if err != nil {
				return err
			}
			task.ActualMhr = n
		case "created_date":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.CreatedDate = s
		case "created_by":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.CreatedBy = s
		case "last_modified":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.LastModified = s
		case "modified_by":
			s, err := asString(key, value)
			if err != nil {
				return err
			}
			task.ModifiedBy = s
		case "reminders":
			rs, ok := value.([]models.Reminder)
			if !ok {
				return fmt.Errorf("field %s requires []models.Reminder, got %T", key, value)
			}
			task.Reminders = rs
		default:
			return fmt.Errorf("unknown task field %q in update", key)
		}
	}
	return nil
}

func asString(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case models.TaskPriority:
		return string(v), nil
	default:
		return "", fmt.Errorf("field %s requires a string, got %T", key, value)
	}
}

func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("field %s requires an integer, got %T", key, value)
	}
}
