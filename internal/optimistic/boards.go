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

// AddBoard shows a pending board right away and creates it remotely
func (c *Coordinator) AddBoard(d BoardDraft) (*Op, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	pending := model.Board{
		ID:      model.NewPendingID(),
		Title:   strings.TrimSpace(d.Title),
		Pending: true,
		Columns: []model.Column{},
	}
	titles := make([]string, len(d.Columns))
	for i, cd := range d.Columns {
		titles[i] = strings.TrimSpace(cd.Title)
		pending.Columns = append(pending.Columns, model.Column{
			ID:          model.NewPendingID(),
			Title:       titles[i],
			Pending:     true,
			Tasks:       []model.Task{},
			TasksLoaded: true,
		})
	}

	op := c.begin(notify.EntityBoard, notify.ActionAdd, pending.ID)
	op.success = "Board added successfully!"
	absent := c.st.BoardSnapshot(pending.ID)
	op.undo = func(st *store.Store) {
		st.RestoreBoard(absent)
	}
	c.st.ReplaceBoard(pending)

	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.CreateBoard(ctx, pending.Title, titles)
	}
	op.confirm = func(st *store.Store, result any) error {
		b := result.(model.Board)
		// a new board has no tasks yet
		for i := range b.Columns {
			if b.Columns[i].Tasks == nil {
				b.Columns[i].Tasks = []model.Task{}
			}
			b.Columns[i].TasksLoaded = true
		}
		st.ConfirmBoard(pending.ID, b)
		return nil
	}
	return op, nil
}

// EditBoard renames a board and replaces its column list. Columns keep
// their tasks when their id is kept; columns without id are created.
func (c *Coordinator) EditBoard(boardID string, d BoardDraft) (*Op, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	b, err := c.board(notify.EntityBoard, notify.ActionEdit, boardID, "")
	if err != nil {
		return nil, err
	}

	next := b.Clone()
	next.Title = strings.TrimSpace(d.Title)
	next.Columns = make([]model.Column, 0, len(d.Columns))
	inputs := make([]remote.ColumnInput, 0, len(d.Columns))
	for _, cd := range d.Columns {
		title := strings.TrimSpace(cd.Title)
		if cd.ID == "" {
			next.Columns = append(next.Columns, model.Column{
				ID:          model.NewPendingID(),
				Title:       title,
				Pending:     true,
				Tasks:       []model.Task{},
				TasksLoaded: true,
			})
			inputs = append(inputs, remote.ColumnInput{Title: title})
			continue
		}
		i := b.Column(cd.ID)
		if i < 0 {
			return nil, c.unresolved(notify.EntityBoard, notify.ActionEdit, "column not found")
		}
		col := b.Columns[i].Clone()
		col.Title = title
		next.Columns = append(next.Columns, col)
		inputs = append(inputs, remote.ColumnInput{ID: cd.ID, Title: title})
	}

	// an edit may rewrite every column, so the whole board is restored
	op := c.begin(notify.EntityBoard, notify.ActionEdit, boardID)
	op.success = "Board edited successfully!"
	snap := c.st.BoardSnapshot(boardID)
	op.undo = func(st *store.Store) {
		st.RestoreBoard(snap)
	}
	c.st.ReplaceBoard(next)

	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.UpdateBoard(ctx, boardID, next.Title, inputs)
	}
	op.confirm = func(st *store.Store, result any) error {
		confirmed := result.(model.Board)
		// columns created by this edit start out empty
		for i := range confirmed.Columns {
			if b.Column(confirmed.Columns[i].ID) < 0 && !confirmed.Columns[i].TasksLoaded {
				confirmed.Columns[i].Tasks = []model.Task{}
				confirmed.Columns[i].TasksLoaded = true
			}
		}
		st.ReplaceBoard(confirmed)
		return nil
	}
	return op, nil
}

// RenameColumn changes a column's title
func (c *Coordinator) RenameColumn(boardID, columnID, title string) (*Op, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Message: "Column name is required"}
	}
	b, err := c.board(notify.EntityColumn, notify.ActionRename, boardID, "Board ID is required to rename a column.")
	if err != nil {
		return nil, err
	}
	col, err := c.column(notify.EntityColumn, notify.ActionRename, b, columnID, "ID is required to rename a column.")
	if err != nil {
		return nil, err
	}
	if col.Title == title {
		return nil, ErrNoChange
	}

	op := c.begin(notify.EntityColumn, notify.ActionRename, boardID)
	op.success = "Column title updated successfully!"
	old := col.Title
	op.undo = func(st *store.Store) {
		b, ok := st.Board(boardID)
		if !ok || b.Column(columnID) < 0 {
			return
		}
		cur := b.Columns[b.Column(columnID)]
		cur.Title = old
		_ = st.ReplaceColumn(boardID, cur)
	}
	col.Title = title
	if err := c.st.ReplaceColumn(boardID, col); err != nil {
		return nil, c.fail(op, fmt.Errorf("failed to rename column: %w", err))
	}

	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.RenameColumn(ctx, boardID, columnID, title)
	}
	op.confirm = func(st *store.Store, result any) error {
		return st.ReplaceColumn(boardID, result.(model.Column))
	}
	return op, nil
}

// ReorderColumns applies a new column order and persists it with a board
// update. ids must be a permutation of the board's column ids.
func (c *Coordinator) ReorderColumns(boardID string, ids []string) (*Op, error) {
	b, err := c.board(notify.EntityColumn, notify.ActionReorder, boardID, "")
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if model.IsPendingID(id) {
			return nil, c.unresolved(notify.EntityColumn, notify.ActionReorder, "column is not saved yet")
		}
	}

	op := c.begin(notify.EntityColumn, notify.ActionReorder, boardID)
	op.success = "Columns reordered."
	op.failure = "Failed to reorder columns."
	prior := b.ColumnIDs()
	op.undo = func(st *store.Store) {
		_ = st.RestoreColumnOrder(boardID, prior)
	}
	if err := c.st.ReorderColumns(boardID, ids); err != nil {
		return nil, c.fail(op, err)
	}

	inputs := make([]remote.ColumnInput, len(ids))
	for i, id := range ids {
		inputs[i] = remote.ColumnInput{ID: id, Title: b.Columns[b.Column(id)].Title}
	}
	op.call = func(ctx context.Context, svc remote.BoardService) (any, error) {
		return svc.UpdateBoard(ctx, boardID, b.Title, inputs)
	}
	op.confirm = func(st *store.Store, result any) error {
		st.ReplaceBoard(result.(model.Board))
		return nil
	}
	return op, nil
}
