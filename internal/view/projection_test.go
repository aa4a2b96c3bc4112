package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskdeck/taskdeck/models"
)

func titles(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestProject_CategoryAndPendingFilter(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "g1", Category: "general"},
		{ID: 2, Title: "g2", Category: "general"},
		{ID: 3, Title: "g3", Category: "general"},
		{ID: 4, Title: "done", Category: "general", Completed: true},
		{ID: 5, Title: "other", Category: "maintenance"},
	}

	got := Project(tasks, Filter{Category: "general", ShowCompleted: false}, Sort{})
	assert.Equal(t, []string{"g1", "g2", "g3"}, titles(got))
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	tasks := []models.Task{
		{ID: 2, Title: "b", Priority: models.PriorityLow},
		{ID: 1, Title: "a", Priority: models.PriorityHigh},
	}

	_ = Project(tasks, Filter{}, Sort{Column: "priority"})

	require.Equal(t, "b", tasks[0].Title, "input order must be preserved")
	require.Equal(t, "a", tasks[1].Title)
}

func TestMatches_Search(t *testing.T) {
	task := models.Task{
		Title:       "Update GA drawing",
		Description: "hull section",
		Category:    "drawings",
		MainStaff:   "Jay",
	}

	assert.True(t, Matches(task, Filter{Search: "ga drawing"}))
	assert.True(t, Matches(task, Filter{Search: "HULL"}))
	assert.True(t, Matches(task, Filter{Search: "jay"}))
	assert.False(t, Matches(task, Filter{Search: "propeller"}))
}

func TestMatches_StaffFilters(t *testing.T) {
	task := models.Task{Title: "t", MainStaff: "Jay", AssignedTo: "Earl"}

	assert.True(t, Matches(task, Filter{MainStaff: "jay"}))
	assert.False(t, Matches(task, Filter{MainStaff: "Earl"}))
	assert.True(t, Matches(task, Filter{AssignedTo: "earl"}))
}

func TestMatches_CompletedHiddenByDefault(t *testing.T) {
	done := models.Task{Title: "t", Completed: true}
	assert.False(t, Matches(done, Filter{}))
	assert.True(t, Matches(done, Filter{ShowCompleted: true}))
}

func TestSortTasks_PrioritySeverity(t *testing.T) {
	tasks := []models.Task{
		{Title: "low", Priority: models.PriorityLow},
		{Title: "high", Priority: models.PriorityHigh},
		{Title: "medium", Priority: models.PriorityMedium},
	}

	SortTasks(tasks, Sort{Column: "priority"})
	assert.Equal(t, []string{"high", "medium", "low"}, titles(tasks))

	SortTasks(tasks, Sort{Column: "priority", Reverse: true})
	assert.Equal(t, []string{"low", "medium", "high"}, titles(tasks))
}

func TestSortTasks_Status(t *testing.T) {
	past := time.Now().AddDate(0, 0, -10).Format(models.DateLayout)
	near := time.Now().AddDate(0, 0, 2).Format(models.DateLayout)
	far := time.Now().AddDate(0, 0, 30).Format(models.DateLayout)

	tasks := []models.Task{
		{Title: "completed", DueDate: near, Completed: true},
		{Title: "no due date"},
		{Title: "due soon", DueDate: near},
		{Title: "overdue", DueDate: past},
		{Title: "due later", DueDate: far},
	}

	SortTasks(tasks, Sort{Column: "status"})
	assert.Equal(t, []string{"overdue", "due soon", "due later", "no due date", "completed"}, titles(tasks))
}

func TestSortTasks_RevNumeric(t *testing.T) {
	tasks := []models.Task{
		{Title: "r10", Rev: "Rev 10"},
		{Title: "r2", Rev: "2"},
		{Title: "none", Rev: ""},
		{Title: "r1", Rev: "R1"},
	}

	SortTasks(tasks, Sort{Column: "rev"})
	assert.Equal(t, []string{"r1", "r2", "r10", "none"}, titles(tasks))
}

func TestSortTasks_IDNumeric(t *testing.T) {
	tasks := []models.Task{{ID: 10}, {ID: 2}, {ID: 1}}
	SortTasks(tasks, Sort{Column: "id"})
	assert.Equal(t, 1, tasks[0].ID)
	assert.Equal(t, 2, tasks[1].ID)
	assert.Equal(t, 10, tasks[2].ID)
}

func TestSortTasks_StableOnTies(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "first", Priority: models.PriorityHigh},
		{ID: 2, Title: "second", Priority: models.PriorityHigh},
	}
	SortTasks(tasks, Sort{Column: "priority"})
	assert.Equal(t, []string{"first", "second"}, titles(tasks))
}

func TestToggle(t *testing.T) {
	s := Toggle(Sort{}, "priority")
	assert.Equal(t, Sort{Column: "priority"}, s)

	s = Toggle(s, "priority")
	assert.Equal(t, Sort{Column: "priority", Reverse: true}, s)

	s = Toggle(s, "due_date")
	assert.Equal(t, Sort{Column: "due_date"}, s)
}
