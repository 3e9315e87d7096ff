package store

import (
	"github.com/dori/plando/internal/model"
)

// Selectors are read-only projections. They never mutate the store.

// BoardRef is the sidebar projection of a board
type BoardRef struct {
	ID      string
	Title   string
	Active  bool
	Pending bool
}

// ActiveBoard returns the selected board
func ActiveBoard(s *Store) (model.Board, bool) {
	if s.active == "" {
		return model.Board{}, false
	}
	return s.Board(s.active)
}

// ActiveBoardColumns returns the selected board's columns, or none
func ActiveBoardColumns(s *Store) []model.Column {
	b, ok := ActiveBoard(s)
	if !ok {
		return nil
	}
	return b.Columns
}

// BoardRefs lists every board for the sidebar
func BoardRefs(s *Store) []BoardRef {
	refs := make([]BoardRef, len(s.boards))
	for i, b := range s.boards {
		refs[i] = BoardRef{
			ID:      b.ID,
			Title:   b.Title,
			Active:  b.ID == s.active,
			Pending: b.Pending,
		}
	}
	return refs
}

// ColumnTasks returns the tasks of one column
func ColumnTasks(s *Store, boardID, columnID string) []model.Task {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return nil
	}
	return c.Clone().Tasks
}

// TaskByID looks up one task
func TaskByID(s *Store, boardID, columnID, taskID string) (model.Task, bool) {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return model.Task{}, false
	}
	i := c.Task(taskID)
	if i < 0 {
		return model.Task{}, false
	}
	return c.Tasks[i].Clone(), true
}
