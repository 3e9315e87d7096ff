package model

import (
	"strings"

	"github.com/google/uuid"
)

const pendingPrefix = "pending-"

// NewPendingID returns a client-side placeholder id for an entity the
// service has not confirmed yet. Pending ids are never sent to the service.
func NewPendingID() string {
	return pendingPrefix + uuid.New().String()
}

// IsPendingID reports whether id was produced by NewPendingID
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, pendingPrefix)
}

// Column is a named, ordered bucket of tasks within a board
type Column struct {
	ID    string
	Title string
	Tasks []Task

	// TasksLoaded is false until the column's tasks were fetched
	TasksLoaded bool
	Pending     bool
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	out := c
	if c.Tasks != nil {
		out.Tasks = make([]Task, len(c.Tasks))
		for i, t := range c.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return out
}

// Task returns the index of the task with the given id, or -1
func (c *Column) Task(id string) int {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// TaskIDs returns the ordered ids of the column's tasks
func (c *Column) TaskIDs() []string {
	ids := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// Board is the top-level container of columns
type Board struct {
	ID      string
	Title   string
	Columns []Column
	Pending bool
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	out := b
	if b.Columns != nil {
		out.Columns = make([]Column, len(b.Columns))
		for i, c := range b.Columns {
			out.Columns[i] = c.Clone()
		}
	}
	return out
}

// Column returns the index of the column with the given id, or -1
func (b *Board) Column(id string) int {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// ColumnIDs returns the ordered ids of the board's columns
func (b *Board) ColumnIDs() []string {
	ids := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		ids[i] = c.ID
	}
	return ids
}

// TaskCount returns the number of loaded tasks across all columns
func (b *Board) TaskCount() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}
