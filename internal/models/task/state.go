package task

import (
	"fmt"
	"sort"
	"time"
)

// State вычисляемое состояние задачи. Никогда не сохраняется в хранилище.
type State string

const StatePending State = "pending"
const StateOverdue State = "overdue"
const StateCompleted State = "completed"

// Classify единственное место, где решается, просрочена ли задача.
// Задача с ScheduledDate == now ещё pending, просрочка начинается строго после.
func Classify(t *Task, now time.Time) State {
	if t.IsCompleted {
		return StateCompleted
	}
	if t.ScheduledDate.Before(now) {
		return StateOverdue
	}
	return StatePending
}

func IsOverdue(t *Task, now time.Time) bool {
	return Classify(t, now) == StateOverdue
}

// Criterion фильтр списков задач.
type Criterion string

const CriterionAll Criterion = "all"
const CriterionPending Criterion = "pending"
const CriterionOverdue Criterion = "overdue"
const CriterionCompleted Criterion = "completed"

func ParseCriterion(raw string) (Criterion, error) {
	switch Criterion(raw) {
	case "", CriterionAll:
		return CriterionAll, nil
	case CriterionPending, CriterionOverdue, CriterionCompleted:
		return Criterion(raw), nil
	}
	return "", fmt.Errorf("неизвестный фильтр задач %q", raw)
}

func (c Criterion) matches(t *Task, now time.Time) bool {
	switch c {
	case CriterionAll, "":
		return true
	case CriterionPending:
		return Classify(t, now) == StatePending
	case CriterionOverdue:
		return Classify(t, now) == StateOverdue
	case CriterionCompleted:
		return Classify(t, now) == StateCompleted
	}
	return false
}

// Filter сохраняет порядок входа. Пустой вход даёт пустой (не nil) срез.
func Filter(tasks []*Task, criterion Criterion, now time.Time) []*Task {
	res := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if criterion.matches(t, now) {
			res = append(res, t)
		}
	}
	return res
}

// Counts количество задач в каждом состоянии на момент now.
type Counts struct {
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
}

func Count(tasks []*Task, now time.Time) Counts {
	var c Counts
	for _, t := range tasks {
		switch Classify(t, now) {
		case StatePending:
			c.Pending++
		case StateOverdue:
			c.Overdue++
		case StateCompleted:
			c.Completed++
		}
	}
	return c
}

func SortBySchedule(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].ScheduledDate.Before(tasks[j].ScheduledDate)
	})
}
