package optimistic

import (
	"strings"
	"time"

	"github.com/dori/plando/internal/model"
)

// ColumnDraft is one column in a board form. ID is empty for new columns.
type ColumnDraft struct {
	ID    string
	Title string
}

// BoardDraft is the content of the add/edit board form
type BoardDraft struct {
	Title   string
	Columns []ColumnDraft
}

// NewBoardDraft builds a draft for a new board from column titles
func NewBoardDraft(title string, columns ...string) BoardDraft {
	d := BoardDraft{Title: title}
	for _, c := range columns {
		d.Columns = append(d.Columns, ColumnDraft{Title: c})
	}
	return d
}

// DraftOf builds an edit form draft from an existing board
func DraftOf(b model.Board) BoardDraft {
	d := BoardDraft{Title: b.Title}
	for _, c := range b.Columns {
		d.Columns = append(d.Columns, ColumnDraft{ID: c.ID, Title: c.Title})
	}
	return d
}

// Validate checks the form before anything is written
func (d BoardDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "Board Name is required"}
	}
	for _, c := range d.Columns {
		if strings.TrimSpace(c.Title) == "" {
			return &ValidationError{Field: "columns", Message: "Column name is required"}
		}
	}
	return nil
}

// TaskDraft is the content of the add task form
type TaskDraft struct {
	ColumnID    string
	Title       string
	Description string
	Deadline    *time.Time
	Status      model.Status
	Priority    model.Priority
	SubTasks    []string
}

// Validate checks the whole form, including the column picker
func (d TaskDraft) Validate() error {
	if err := d.validateFields(); err != nil {
		return err
	}
	if d.ColumnID == "" {
		return &ValidationError{Field: "column", Message: "You must select a column"}
	}
	return nil
}

func (d TaskDraft) validateFields() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "Task name is required"}
	}
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Message: "Task description is required"}
	}
	if d.Status != "" && !d.Status.Valid() {
		return &ValidationError{Field: "status", Message: "Invalid status"}
	}
	if d.Priority != "" && !d.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "Invalid priority"}
	}
	return nil
}

// withDefaults fills status and priority and drops blank subtasks
func (d TaskDraft) withDefaults() TaskDraft {
	if d.Status == "" {
		d.Status = model.StatusTodo
	}
	if d.Priority == "" {
		d.Priority = model.PriorityLow
	}
	subs := make([]string, 0, len(d.SubTasks))
	for _, s := range d.SubTasks {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	d.SubTasks = subs
	return d
}
