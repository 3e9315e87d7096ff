package optimistic

import (
	"context"
	"fmt"
	"strings"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/store"
)

// AddTask shows a pending task at the end of its column and creates it
// remotely
func (c *Coordinator) AddTask(boardID string, d TaskDraft) (*Op, error) {
	if err := d.validateFields(); err != nil {
		return nil, err
	}
	b, err := c.board(notify.EntityTask, notify.ActionAdd, boardID, "")
	if err != nil {
		return nil, err
	}
	if _, err := c.column(notify.EntityTask, notify.ActionAdd, b, d.ColumnID, "Column ID is required to add a task"); err != nil {
		return nil, err
	}

	d = d.withDefaults()
	pending := model.Task{
		ID:          model.NewPendingID(),
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Status:      d.Status,
		Priority:    d.Priority,
		Pending:     true,
	}
	if d.Deadline != nil {
		due := model.DateOf(*d.Deadline)
		pending.Deadline = &due
	}
	for _, title := range d.SubTasks {
		pending.SubTasks = append(pending.SubTasks, model.SubTask{
			ID:      model.NewPendingID(),
			Title:   title,
			Pending: true,
		})
	}

	columnID := d.ColumnID
	op := c.begin(notify.EntityTask, notify.ActionAdd, boardID)
	op.success = "Task added successfully!"
	op.undo = func(st *store.Store) {
		_ = st.RemoveTask(boardID, columnID, pending.ID)
	}
	if err := c.st.ReplaceTask(boardID, columnID, pending); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to add task: %w", err))
	}

	in := remote.TaskInput{
		Title:       pending.Title,
		Description: pending.Description,
		Deadline:    pending.Deadline,
		Status:      pending.Status,
		Priority:    pending.Priority,
		SubTasks:    d.SubTasks,
	}
	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.CreateTask(ctx, boardID, columnID, in)
	}
	op.confirm = func(st *store.Store, result any) error {
		return st.ConfirmTask(boardID, columnID, pending.ID, result.(model.Task))
	}
	return op, nil
}

// ValidatePatch checks the fields a task update sets
func ValidatePatch(p remote.TaskPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Message: "Task name is required"}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return &ValidationError{Field: "description", Message: "Task description is required"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &ValidationError{Field: "status", Message: "Invalid status"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "Invalid priority"}
	}
	return nil
}

// EditTask applies a partial update to a task. A column change in the
// patch is ignored; use MoveTask.
func (c *Coordinator) EditTask(boardID, columnID, taskID string, p remote.TaskPatch) (*Op, error) {
	p.ColumnID = nil
	if err := ValidatePatch(p); err != nil {
		return nil, err
	}
	if p.Empty() {
		return nil, ErrNoChange
	}
	t, err := c.taskRef(notify.EntityTask, notify.ActionEdit, boardID, columnID, taskID)
	if err != nil {
		return nil, err
	}

	op := c.begin(notify.EntityTask, notify.ActionEdit, boardID)
	op.success = "Task updated successfully!"
	op.undo = c.restoreTask(boardID, columnID, taskID)
	if err := c.st.ReplaceTask(boardID, columnID, p.Apply(t)); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to edit task: %w", err))
	}

	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.UpdateTask(ctx, boardID, columnID, taskID, p)
	}
	op.confirm = func(st *store.Store, result any) error {
		return st.ReplaceTask(boardID, columnID, result.(model.Task))
	}
	return op, nil
}

// ToggleSubtask flips one subtask's done flag
func (c *Coordinator) ToggleSubtask(boardID, columnID, taskID, subTaskID string) (*Op, error) {
	t, err := c.taskRef(notify.EntitySubTask, notify.ActionToggle, boardID, columnID, taskID)
	if err != nil {
		return nil, err
	}
	switch {
	case subTaskID == "":
		return nil, c.missing(notify.EntitySubTask, notify.ActionToggle, "ID is required to toggle a subtask.")
	case model.IsPendingID(subTaskID):
		return nil, c.unresolved(notify.EntitySubTask, notify.ActionToggle, "subtask is not saved yet")
	case t.SubTask(subTaskID) < 0:
		return nil, c.unresolved(notify.EntitySubTask, notify.ActionToggle, "subtask not found")
	}

	op := c.begin(notify.EntitySubTask, notify.ActionToggle, boardID)
	op.success = "Subtask updated."
	op.undo = c.restoreTask(boardID, columnID, taskID)
	if err := c.st.ToggleSubtask(boardID, columnID, taskID, subTaskID); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to toggle subtask: %w", err))
	}

	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.ToggleSubTask(ctx, boardID, columnID, taskID, subTaskID)
	}
	op.confirm = func(st *store.Store, result any) error {
		return st.ReplaceTask(boardID, columnID, result.(model.Task))
	}
	return op, nil
}

// ReorderTasks applies a new task order within a column. ids must be a
// permutation of the column's task ids.
func (c *Coordinator) ReorderTasks(boardID, columnID string, ids []string) (*Op, error) {
	b, err := c.board(notify.EntityTask, notify.ActionReorder, boardID, "")
	if err != nil {
		return nil, err
	}
	col, err := c.column(notify.EntityTask, notify.ActionReorder, b, columnID, "Column ID is required to reorder tasks.")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if model.IsPendingID(id) {
			return nil, c.unresolved(notify.EntityTask, notify.ActionReorder, "task is not saved yet")
		}
	}

	op := c.begin(notify.EntityTask, notify.ActionReorder, boardID)
	op.success = "Tasks reordered."
	op.failure = "Failed to reorder tasks."
	prior := col.TaskIDs()
	op.undo = func(st *store.Store) {
		_ = st.RestoreTaskOrder(boardID, columnID, prior)
	}
	if err := c.st.ReorderTasks(boardID, columnID, ids); err != nil {
		return nil, c.fail(op, err)
	}

	order := append([]string(nil), ids...)
	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return nil, svc.ReorderTasks(ctx, boardID, columnID, order)
	}
	return op, nil
}

// MoveTask takes a task out of one column and appends it to another column
// of the same board
func (c *Coordinator) MoveTask(boardID, fromColumnID, toColumnID, taskID string) (*Op, error) {
	t, err := c.taskRef(notify.EntityTask, notify.ActionMove, boardID, fromColumnID, taskID)
	if err != nil {
		return nil, err
	}
	b, _ := c.st.Board(boardID)
	if _, err := c.column(notify.EntityTask, notify.ActionMove, b, toColumnID, "Column ID is required to move a task."); err != nil {
		return nil, err
	}
	if fromColumnID == toColumnID {
		return nil, ErrNoChange
	}

	op := c.begin(notify.EntityTask, notify.ActionMove, boardID)
	op.success = "Task moved."
	from, _ := c.st.TaskSnapshot(boardID, fromColumnID, taskID)
	op.undo = func(st *store.Store) {
		_ = st.RemoveTask(boardID, toColumnID, taskID)
		_ = st.RestoreTask(from)
	}
	if err := c.st.RemoveTask(boardID, fromColumnID, taskID); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to move task: %w", err))
	}
	if err := c.st.ReplaceTask(boardID, toColumnID, t); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to move task: %w", err))
	}

	to := toColumnID
	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.UpdateTask(ctx, boardID, fromColumnID, taskID, remote.TaskPatch{ColumnID: &to})
	}
	op.confirm = func(st *store.Store, result any) error {
		return st.ReplaceTask(boardID, toColumnID, result.(model.Task))
	}
	return op, nil
}

// taskRef resolves board, column and task ids for a task-level mutation
func (c *Coordinator) taskRef(entity notify.Entity, action notify.Action, boardID, columnID, taskID string) (model.Task, error) {
	if boardID == "" || columnID == "" {
		msg := fmt.Sprintf("Board ID and Column ID are required to %s a %s.", action, entity)
		return model.Task{}, c.missing(entity, action, msg)
	}
	b, err := c.board(entity, action, boardID, "")
	if err != nil {
		return model.Task{}, err
	}
	col, err := c.column(entity, action, b, columnID, "")
	if err != nil {
		return model.Task{}, err
	}
	return c.task(entity, action, col, taskID, fmt.Sprintf("ID is required to %s a task.", action))
}

// restoreTask captures a task so a failed edit can put exactly that task
// back. A task that is gone by then stays gone.
func (c *Coordinator) restoreTask(boardID, columnID, taskID string) func(st *store.Store) {
	snap, ok := c.st.TaskSnapshot(boardID, columnID, taskID)
	return func(st *store.Store) {
		if !ok {
			return
		}
		if _, present := store.TaskByID(st, boardID, columnID, taskID); present {
			_ = st.RestoreTask(snap)
		}
	}
}
