package model

import (
	"time"
)

// Status represents the workflow state of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next cycles todo -> in-progress -> done -> todo
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Priority represents task priority level
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Next cycles low -> medium -> high -> low
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// Weight returns a numeric weight for sorting by priority
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// SubTask is a checklist item within a task
type SubTask struct {
	ID      string
	Title   string
	Done    bool
	Pending bool
}

// Task is a unit of work inside a column
type Task struct {
	ID          string
	Title       string
	Description string
	Deadline    *time.Time // calendar date, see DateOf
	Status      Status
	Priority    Priority
	SubTasks    []SubTask
	Pending     bool
}

// Clone returns a deep copy of the task
func (t Task) Clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.SubTasks != nil {
		c.SubTasks = make([]SubTask, len(t.SubTasks))
		copy(c.SubTasks, t.SubTasks)
	}
	return c
}

// SubTask returns the index of the subtask with the given id, or -1
func (t *Task) SubTask(id string) int {
	for i := range t.SubTasks {
		if t.SubTasks[i].ID == id {
			return i
		}
	}
	return -1
}

// SubTaskProgress returns how many subtasks are done out of the total
func (t *Task) SubTaskProgress() (done, total int) {
	for _, st := range t.SubTasks {
		if st.Done {
			done++
		}
	}
	return done, len(t.SubTasks)
}

// IsOverdue returns true if the deadline is before the day containing now
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.Status == StatusDone {
		return false
	}
	return t.Deadline.Before(DateOf(now))
}

// IsDueToday returns true if the task is due on the day containing now
func (t *Task) IsDueToday(now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	return t.Deadline.Equal(DateOf(now))
}

// DateOf strips the time of day, keeping the calendar date of t in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
