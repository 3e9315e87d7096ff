// Package remote talks to the board service over HTTP.
package remote

import (
	"context"
	"time"

	"github.com/dori/plando/internal/model"
)

// BoardService is everything the client needs from the board service
type BoardService interface {
	ListBoards(ctx context.Context) ([]model.Board, error)
	GetBoard(ctx context.Context, id string) (model.Board, error)
	CreateBoard(ctx context.Context, title string, columnTitles []string) (model.Board, error)
	UpdateBoard(ctx context.Context, id, title string, columns []ColumnInput) (model.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	ListColumns(ctx context.Context, boardID string) ([]model.Column, error)
	RenameColumn(ctx context.Context, boardID, columnID, title string) (model.Column, error)
	DeleteColumn(ctx context.Context, boardID, columnID string) error

	ListTasks(ctx context.Context, boardID, columnID string) ([]model.Task, error)
	CreateTask(ctx context.Context, boardID, columnID string, in TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, boardID, columnID, taskID string, patch TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, boardID, columnID, taskID string) error
	ToggleSubTask(ctx context.Context, boardID, columnID, taskID, subTaskID string) (model.Task, error)
	ReorderTasks(ctx context.Context, boardID, columnID string, taskIDs []string) error
}

// ColumnInput is one column of a board update. An empty or pending ID
// asks the service to create the column.
type ColumnInput struct {
	ID    string
	Title string
}

// TaskInput is the payload for creating a task
type TaskInput struct {
	Title       string
	Description string
	Deadline    *time.Time
	Status      model.Status
	Priority    model.Priority
	SubTasks    []string
}

// TaskPatch carries the fields of a task update. Nil fields are left
// unchanged by the service.
type TaskPatch struct {
	Title         *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	Status        *model.Status
	Priority      *model.Priority
	SubTasks      []model.SubTask

	// ColumnID moves the task to another column of the same board
	ColumnID *string
}

// Empty reports whether the patch changes nothing
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil &&
		!p.ClearDeadline && p.Status == nil && p.Priority == nil &&
		p.SubTasks == nil && p.ColumnID == nil
}

// Apply returns t with the patch applied
func (p TaskPatch) Apply(t model.Task) model.Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.ClearDeadline {
		out.Deadline = nil
	}
	if p.Deadline != nil {
		d := model.DateOf(*p.Deadline)
		out.Deadline = &d
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.SubTasks != nil {
		out.SubTasks = make([]model.SubTask, len(p.SubTasks))
		copy(out.SubTasks, p.SubTasks)
	}
	return out
}
