package task_test

import (
	"testing"
	"time"

	"cellendar/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTask(title string, scheduled time.Time, completed bool) *task.Task {
	t := &task.Task{Title: title, ScheduledDate: scheduled, Type: task.TypeObservation}
	if completed {
		t.MarkCompleted(scheduled)
	}
	return t
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		task *task.Task
		want task.State
	}{
		{"завтра", newTask("a", now.Add(24*time.Hour), false), task.StatePending},
		{"вчера", newTask("b", now.Add(-24*time.Hour), false), task.StateOverdue},
		{"выполнена в прошлом", newTask("c", now.Add(-24*time.Hour), true), task.StateCompleted},
		{"выполнена в будущем", newTask("d", now.Add(24*time.Hour), true), task.StateCompleted},
		{"ровно сейчас", newTask("e", now, false), task.StatePending},
		{"секунду назад", newTask("f", now.Add(-time.Second), false), task.StateOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, task.Classify(tt.task, now))
			assert.Equal(t, tt.want == task.StateOverdue, task.IsOverdue(tt.task, now))
		})
	}
}

func TestClassify_StatesAreExclusive(t *testing.T) {
	tasks := []*task.Task{
		newTask("a", now.Add(time.Hour), false),
		newTask("b", now.Add(-time.Hour), false),
		newTask("c", now.Add(-time.Hour), true),
	}
	for _, tk := range tasks {
		matched := 0
		for _, c := range []task.Criterion{task.CriterionPending, task.CriterionOverdue, task.CriterionCompleted} {
			matched += len(task.Filter([]*task.Task{tk}, c, now))
		}
		assert.Equal(t, 1, matched, tk.Title)
	}
}

func TestFilter(t *testing.T) {
	a := newTask("A", now.Add(-time.Hour), false)
	b := newTask("B", now.Add(time.Hour), false)
	c := newTask("C", now.Add(-2*time.Hour), true)
	d := newTask("D", now.Add(-3*time.Hour), false)
	tasks := []*task.Task{a, b, c, d}

	assert.Equal(t, []*task.Task{a, d}, task.Filter(tasks, task.CriterionOverdue, now))
	assert.Equal(t, []*task.Task{b}, task.Filter(tasks, task.CriterionPending, now))
	assert.Equal(t, []*task.Task{c}, task.Filter(tasks, task.CriterionCompleted, now))
	assert.Equal(t, tasks, task.Filter(tasks, task.CriterionAll, now))
}

func TestFilter_EmptyInput(t *testing.T) {
	res := task.Filter(nil, task.CriterionOverdue, now)
	require.NotNil(t, res)
	assert.Empty(t, res)
}

func TestParseCriterion(t *testing.T) {
	for _, raw := range []string{"", "all", "pending", "overdue", "completed"} {
		_, err := task.ParseCriterion(raw)
		assert.NoError(t, err, raw)
	}

	c, err := task.ParseCriterion("")
	require.NoError(t, err)
	assert.Equal(t, task.CriterionAll, c)

	_, err = task.ParseCriterion("late")
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	tasks := []*task.Task{
		newTask("a", now.Add(-time.Hour), false),
		newTask("b", now.Add(time.Hour), false),
		newTask("c", now.Add(2*time.Hour), false),
		newTask("d", now.Add(-time.Hour), true),
	}
	assert.Equal(t, task.Counts{Pending: 2, Overdue: 1, Completed: 1}, task.Count(tasks, now))
}

func TestSortBySchedule(t *testing.T) {
	late := newTask("late", now.Add(3*time.Hour), false)
	early := newTask("early", now.Add(time.Hour), false)
	sameAsEarly := newTask("same", now.Add(time.Hour), false)
	tasks := []*task.Task{late, early, sameAsEarly}

	task.SortBySchedule(tasks)
	assert.Equal(t, []*task.Task{early, sameAsEarly, late}, tasks)
}

func TestTask_CompletionInvariant(t *testing.T) {
	tk := newTask("x", now, false)
	assert.Nil(t, tk.CompletedDate)

	tk.MarkCompleted(now)
	require.NotNil(t, tk.CompletedDate)
	assert.True(t, tk.IsCompleted)

	tk.Apply(task.WithIncomplete(), task.WithTitle("y"), task.WithScheduledDate(time.Time{}))
	assert.False(t, tk.IsCompleted)
	assert.Nil(t, tk.CompletedDate)
	assert.Equal(t, "y", tk.Title)
	assert.Equal(t, now, tk.ScheduledDate)
}

func TestTask_CloneDoesNotShareCompletedDate(t *testing.T) {
	tk := newTask("x", now, true)
	c := tk.Clone()
	*c.CompletedDate = now.Add(time.Hour)
	assert.Equal(t, now, *tk.CompletedDate)
}
