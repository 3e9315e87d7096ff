package optimistic

import (
	"context"
	"fmt"

	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/store"
)

// DeleteTarget names what to delete. Entity decides which ids are needed:
// a board needs BoardID, a column BoardID and ColumnID, a task all three.
type DeleteTarget struct {
	Entity   notify.Entity
	BoardID  string
	ColumnID string
	TaskID   string
}

// PendingDelete is a delete waiting for the user's yes or no. Nothing has
// been written until Proceed is called.
type PendingDelete struct {
	c      *Coordinator
	target DeleteTarget
	title  string
	done   bool
}

// PrepareDelete checks the target's references and returns the
// confirmation step
func (c *Coordinator) PrepareDelete(target DeleteTarget) (*PendingDelete, error) {
	var title string
	switch target.Entity {
	case notify.EntityBoard:
		b, err := c.board(target.Entity, notify.ActionDelete, target.BoardID, "ID is required to delete a board.")
		if err != nil {
			return nil, err
		}
		title = b.Title

	case notify.EntityColumn:
		if target.BoardID == "" {
			return nil, c.missing(target.Entity, notify.ActionDelete, "Board ID is required to delete a column.")
		}
		b, err := c.board(target.Entity, notify.ActionDelete, target.BoardID, "")
		if err != nil {
			return nil, err
		}
		col, err := c.column(target.Entity, notify.ActionDelete, b, target.ColumnID, "ID is required to delete a column.")
		if err != nil {
			return nil, err
		}
		title = col.Title

	case notify.EntityTask:
		t, err := c.taskRef(target.Entity, notify.ActionDelete, target.BoardID, target.ColumnID, target.TaskID)
		if err != nil {
			return nil, err
		}
		title = t.Title

	default:
		return nil, fmt.Errorf("cannot delete a %q", target.Entity)
	}

	return &PendingDelete{c: c, target: target, title: title}, nil
}

// Target returns what would be deleted
func (p *PendingDelete) Target() DeleteTarget {
	return p.target
}

// Title returns the title of the entity that would be deleted
func (p *PendingDelete) Title() string {
	return p.title
}

// Prompt is the question shown to the user
func (p *PendingDelete) Prompt() string {
	q := fmt.Sprintf("Are you sure you want to remove this %s %q?", p.target.Entity, p.title)
	if p.target.Entity == notify.EntityBoard {
		q += " This will permanently delete the columns and tasks contained in it."
	}
	return q
}

// Cancel abandons the delete
func (p *PendingDelete) Cancel() {
	p.done = true
}

// Proceed removes the entity from the store and returns the op that
// deletes it remotely. It returns nil after Cancel or a previous Proceed.
func (p *PendingDelete) Proceed() *Op {
	if p.done {
		return nil
	}
	p.done = true

	c, t := p.c, p.target
	op := c.begin(t.Entity, notify.ActionDelete, t.BoardID)

	switch t.Entity {
	case notify.EntityBoard:
		op.success = "Board deleted successfully!"
		snap := c.st.BoardSnapshot(t.BoardID)
		op.undo = func(st *store.Store) {
			st.RestoreBoard(snap)
		}
		c.st.RemoveBoard(t.BoardID)
		op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
			return nil, svc.DeleteBoard(ctx, t.BoardID)
		}

	case notify.EntityColumn:
		op.success = "Column deleted successfully!"
		if snap, ok := c.st.ColumnSnapshot(t.BoardID, t.ColumnID); ok {
			op.undo = func(st *store.Store) {
				_ = st.RestoreColumn(snap)
			}
		}
		if err := c.st.RemoveColumn(t.BoardID, t.ColumnID); err != nil {
			c.logger.Warn().Err(err).Str("column_id", t.ColumnID).Msg("column already gone")
		}
		op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
			return nil, svc.DeleteColumn(ctx, t.BoardID, t.ColumnID)
		}

	case notify.EntityTask:
		op.success = "Task deleted successfully!"
		if snap, ok := c.st.TaskSnapshot(t.BoardID, t.ColumnID, t.TaskID); ok {
			op.undo = func(st *store.Store) {
				_ = st.RestoreTask(snap)
			}
		}
		if err := c.st.RemoveTask(t.BoardID, t.ColumnID, t.TaskID); err != nil {
			c.logger.Warn().Err(err).Str("task_id", t.TaskID).Msg("task already gone")
		}
		op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
			return nil, svc.DeleteTask(ctx, t.BoardID, t.ColumnID, t.TaskID)
		}
	}

	return op
}
