package store

import (
	"reflect"
	"slices"

	"github.com/dori/plando/internal/model"
)

// Snapshot is a deep copy of the whole store content
type Snapshot struct {
	Boards []model.Board
	Active string
}

// Snapshot captures the current content
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Boards: s.Boards(), Active: s.active}
}

// Restore replaces the content with a previously captured snapshot
func (s *Store) Restore(snap Snapshot) {
	boards := make([]model.Board, len(snap.Boards))
	for i, b := range snap.Boards {
		boards[i] = b.Clone()
	}
	s.boards = boards
	s.active = snap.Active
	s.changed()
}

// BoardSnapshot is the last known-good value of one board, taken before an
// optimistic write so the write can be undone
type BoardSnapshot struct {
	boardID string
	index   int
	existed bool
	board   model.Board
	active  string
}

// BoardID returns the id of the captured board
func (b BoardSnapshot) BoardID() string {
	return b.boardID
}

// BoardSnapshot captures one board, or its absence
func (s *Store) BoardSnapshot(boardID string) BoardSnapshot {
	snap := BoardSnapshot{boardID: boardID, index: -1, active: s.active}
	if i := s.indexOf(boardID); i >= 0 {
		snap.index = i
		snap.existed = true
		snap.board = s.boards[i].Clone()
	}
	return snap
}

// RestoreBoard undoes every change made to one board since the snapshot was
// taken. Other boards are left alone.
func (s *Store) RestoreBoard(snap BoardSnapshot) {
	i := s.indexOf(snap.boardID)

	if !snap.existed {
		if i >= 0 {
			s.boards = append(s.boards[:i], s.boards[i+1:]...)
		}
		if s.active == snap.boardID {
			s.active = snap.active
		}
		s.changed()
		return
	}

	switch {
	case i >= 0:
		s.boards[i] = snap.board.Clone()
	case snap.index >= len(s.boards):
		s.boards = append(s.boards, snap.board.Clone())
	default:
		s.boards = append(s.boards, model.Board{})
		copy(s.boards[snap.index+1:], s.boards[snap.index:])
		s.boards[snap.index] = snap.board.Clone()
	}
	if snap.active == snap.boardID && s.active == "" {
		s.active = snap.boardID
	}
	s.changed()
}

// TaskSnapshot is one task and its position in its column
type TaskSnapshot struct {
	boardID  string
	columnID string
	index    int
	task     model.Task
}

// TaskSnapshot captures one task. It reports false when the task is not
// in the store.
func (s *Store) TaskSnapshot(boardID, columnID, taskID string) (TaskSnapshot, bool) {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return TaskSnapshot{}, false
	}
	i := c.Task(taskID)
	if i < 0 {
		return TaskSnapshot{}, false
	}
	return TaskSnapshot{boardID: boardID, columnID: columnID, index: i, task: c.Tasks[i].Clone()}, true
}

// RestoreTask puts a captured task back. A task still in its column is
// overwritten in place, a removed one is reinserted at its old index.
// Nothing else in the column changes.
func (s *Store) RestoreTask(snap TaskSnapshot) error {
	c, err := s.column(snap.boardID, snap.columnID)
	if err != nil {
		return err
	}
	if i := c.Task(snap.task.ID); i >= 0 {
		if reflect.DeepEqual(c.Tasks[i], snap.task) {
			return nil
		}
		c.Tasks[i] = snap.task.Clone()
		s.changed()
		return nil
	}
	c.Tasks = slices.Insert(c.Tasks, min(snap.index, len(c.Tasks)), snap.task.Clone())
	s.changed()
	return nil
}

// ColumnSnapshot is one column, with its tasks, and its position on the board
type ColumnSnapshot struct {
	boardID string
	index   int
	column  model.Column
}

// ColumnSnapshot captures one column. It reports false when the column is
// not in the store.
func (s *Store) ColumnSnapshot(boardID, columnID string) (ColumnSnapshot, bool) {
	b, err := s.board(boardID)
	if err != nil {
		return ColumnSnapshot{}, false
	}
	i := b.Column(columnID)
	if i < 0 {
		return ColumnSnapshot{}, false
	}
	return ColumnSnapshot{boardID: boardID, index: i, column: b.Columns[i].Clone()}, true
}

// RestoreColumn reinserts a removed column at its old index. A column that
// is still on the board is left as it is.
func (s *Store) RestoreColumn(snap ColumnSnapshot) error {
	b, err := s.board(snap.boardID)
	if err != nil {
		return err
	}
	if b.Column(snap.column.ID) >= 0 {
		return nil
	}
	b.Columns = slices.Insert(b.Columns, min(snap.index, len(b.Columns)), snap.column.Clone())
	s.changed()
	return nil
}

// RestoreColumnOrder puts a board's columns back in a captured order.
// Columns added since keep their relative order after the captured ones;
// captured ids that are gone are skipped.
func (s *Store) RestoreColumnOrder(boardID string, ids []string) error {
	b, err := s.board(boardID)
	if err != nil {
		return err
	}
	return s.ReorderColumns(boardID, arrange(b.ColumnIDs(), ids))
}

// RestoreTaskOrder is RestoreColumnOrder for the tasks of one column
func (s *Store) RestoreTaskOrder(boardID, columnID string, ids []string) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	return s.ReorderTasks(boardID, columnID, arrange(c.TaskIDs(), ids))
}

// arrange orders current by prior. The result is always a permutation of
// current.
func arrange(current, prior []string) []string {
	out := make([]string, 0, len(current))
	for _, id := range prior {
		if slices.Contains(current, id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, id := range current {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
