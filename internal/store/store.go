// Package store holds the client's in-memory view of boards, columns and
// tasks plus the active-board selection.
//
// A Store is not safe for concurrent use. It is owned by the event loop:
// only the loop goroutine may call its methods.
package store

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dori/plando/internal/model"
	"github.com/rs/zerolog"
)

var (
	ErrBoardNotFound   = errors.New("board not found")
	ErrColumnNotFound  = errors.New("column not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrSubTaskNotFound = errors.New("subtask not found")
	ErrInvalidOrder    = errors.New("invalid order")
)

// Store is the single source of truth for the UI
type Store struct {
	boards  []model.Board
	active  string
	version uint64

	strict bool
	logger zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithStrict makes programming errors (invalid reorder input) panic
func WithStrict(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithLogger sets the store's logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version increments on every change observable to readers
func (s *Store) Version() uint64 {
	return s.version
}

func (s *Store) changed() {
	s.version++
}

// SetActiveBoard selects the board to view. An empty id clears the selection.
// It does not fetch anything.
func (s *Store) SetActiveBoard(id string) {
	if s.active == id {
		return
	}
	s.active = id
	s.changed()
}

// ActiveBoardID returns the selected board id, or "" when none is selected
func (s *Store) ActiveBoardID() string {
	return s.active
}

// Boards returns a deep copy of every known board in order
func (s *Store) Boards() []model.Board {
	out := make([]model.Board, len(s.boards))
	for i, b := range s.boards {
		out[i] = b.Clone()
	}
	return out
}

// Board returns a deep copy of one board
func (s *Store) Board(id string) (model.Board, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Board{}, false
	}
	return s.boards[i].Clone(), true
}

func (s *Store) indexOf(id string) int {
	for i := range s.boards {
		if s.boards[i].ID == id {
			return i
		}
	}
	return -1
}

// ReplaceBoards overwrites the known board list, e.g. after listing boards.
// Loaded tasks survive for columns whose ids are still present.
func (s *Store) ReplaceBoards(boards []model.Board) {
	next := make([]model.Board, len(boards))
	for i, b := range boards {
		if j := s.indexOf(b.ID); j >= 0 {
			next[i] = mergeLoaded(s.boards[j], b)
		} else {
			next[i] = b.Clone()
		}
	}

	active := s.active
	if active != "" {
		found := false
		for _, b := range next {
			if b.ID == active {
				found = true
				break
			}
		}
		if !found {
			active = ""
		}
	}

	if active == s.active && reflect.DeepEqual(next, s.boards) {
		return
	}
	s.boards = next
	s.active = active
	s.changed()
}

// ReplaceBoard overwrites the known state of one board, appending it when
// it is not known yet
func (s *Store) ReplaceBoard(b model.Board) {
	i := s.indexOf(b.ID)
	if i < 0 {
		s.boards = append(s.boards, b.Clone())
		s.changed()
		return
	}
	merged := mergeLoaded(s.boards[i], b)
	if reflect.DeepEqual(merged, s.boards[i]) {
		return
	}
	s.boards[i] = merged
	s.changed()
}

// ConfirmBoard swaps a pending board for the board the service created.
// The active selection follows the swap.
func (s *Store) ConfirmBoard(pendingID string, b model.Board) {
	i := s.indexOf(pendingID)
	if i < 0 {
		s.ReplaceBoard(b)
		return
	}
	if j := s.indexOf(b.ID); j >= 0 && j != i {
		// already listed by a refresh that raced the create
		s.boards[j] = mergeLoaded(s.boards[j], b)
		s.boards = append(s.boards[:i], s.boards[i+1:]...)
	} else {
		s.boards[i] = b.Clone()
	}
	if s.active == pendingID {
		s.active = b.ID
	}
	s.changed()
}

// RemoveBoard deletes a board and everything it owns. If the board was
// active the selection becomes none.
func (s *Store) RemoveBoard(id string) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.boards = append(s.boards[:i], s.boards[i+1:]...)
	if s.active == id {
		s.active = ""
	}
	s.changed()
}

// ReplaceColumn overwrites one column of a board, appending it when unknown
func (s *Store) ReplaceColumn(boardID string, c model.Column) error {
	b, err := s.board(boardID)
	if err != nil {
		return err
	}
	i := b.Column(c.ID)
	if i < 0 {
		b.Columns = append(b.Columns, c.Clone())
		s.changed()
		return nil
	}
	merged := mergeColumn(b.Columns[i], c)
	if reflect.DeepEqual(merged, b.Columns[i]) {
		return nil
	}
	b.Columns[i] = merged
	s.changed()
	return nil
}

// RemoveColumn deletes a column and all of its tasks
func (s *Store) RemoveColumn(boardID, columnID string) error {
	b, err := s.board(boardID)
	if err != nil {
		return err
	}
	i := b.Column(columnID)
	if i < 0 {
		return nil
	}
	b.Columns = append(b.Columns[:i], b.Columns[i+1:]...)
	s.changed()
	return nil
}

// SetColumnTasks replaces a column's tasks with a freshly fetched list
func (s *Store) SetColumnTasks(boardID, columnID string, tasks []model.Task) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	next := make([]model.Task, len(tasks))
	for i, t := range tasks {
		next[i] = t.Clone()
	}
	if c.TasksLoaded && reflect.DeepEqual(next, c.Tasks) {
		return nil
	}
	c.Tasks = next
	c.TasksLoaded = true
	s.changed()
	return nil
}

// ReplaceTask overwrites one task, appending it when unknown
func (s *Store) ReplaceTask(boardID, columnID string, t model.Task) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	i := c.Task(t.ID)
	if i < 0 {
		c.Tasks = append(c.Tasks, t.Clone())
		s.changed()
		return nil
	}
	if reflect.DeepEqual(c.Tasks[i], t) {
		return nil
	}
	c.Tasks[i] = t.Clone()
	s.changed()
	return nil
}

// ConfirmTask swaps a pending task for the task the service created
func (s *Store) ConfirmTask(boardID, columnID, pendingID string, t model.Task) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	i := c.Task(pendingID)
	if i < 0 {
		return s.ReplaceTask(boardID, columnID, t)
	}
	if j := c.Task(t.ID); j >= 0 && j != i {
		c.Tasks[j] = t.Clone()
		c.Tasks = append(c.Tasks[:i], c.Tasks[i+1:]...)
	} else {
		c.Tasks[i] = t.Clone()
	}
	s.changed()
	return nil
}

// RemoveTask deletes a task and its subtasks
func (s *Store) RemoveTask(boardID, columnID, taskID string) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	i := c.Task(taskID)
	if i < 0 {
		return nil
	}
	c.Tasks = append(c.Tasks[:i], c.Tasks[i+1:]...)
	s.changed()
	return nil
}

// ToggleSubtask flips the done flag of exactly one subtask
func (s *Store) ToggleSubtask(boardID, columnID, taskID, subTaskID string) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	ti := c.Task(taskID)
	if ti < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	task := &c.Tasks[ti]
	si := task.SubTask(subTaskID)
	if si < 0 {
		return fmt.Errorf("%w: %s", ErrSubTaskNotFound, subTaskID)
	}
	task.SubTasks[si].Done = !task.SubTasks[si].Done
	s.changed()
	return nil
}

// ReorderColumns replaces the column order of a board. ids must be a
// permutation of the board's current column ids.
func (s *Store) ReorderColumns(boardID string, ids []string) error {
	b, err := s.board(boardID)
	if err != nil {
		return err
	}
	if err := checkPermutation(b.ColumnIDs(), ids); err != nil {
		return s.invalidOrder(err)
	}
	next := make([]model.Column, len(ids))
	for i, id := range ids {
		next[i] = b.Columns[b.Column(id)]
	}
	if reflect.DeepEqual(next, b.Columns) {
		return nil
	}
	b.Columns = next
	s.changed()
	return nil
}

// ReorderTasks replaces the task order of a column. ids must be a
// permutation of the column's current task ids.
func (s *Store) ReorderTasks(boardID, columnID string, ids []string) error {
	c, err := s.column(boardID, columnID)
	if err != nil {
		return err
	}
	if err := checkPermutation(c.TaskIDs(), ids); err != nil {
		return s.invalidOrder(err)
	}
	next := make([]model.Task, len(ids))
	for i, id := range ids {
		next[i] = c.Tasks[c.Task(id)]
	}
	if reflect.DeepEqual(next, c.Tasks) {
		return nil
	}
	c.Tasks = next
	s.changed()
	return nil
}

func (s *Store) invalidOrder(err error) error {
	s.logger.Error().Err(err).Msg("rejected reorder")
	if s.strict {
		panic(err)
	}
	return err
}

func checkPermutation(current, ids []string) error {
	if len(current) != len(ids) {
		return fmt.Errorf("%w: got %d ids, want %d", ErrInvalidOrder, len(ids), len(current))
	}
	seen := make(map[string]bool, len(current))
	for _, id := range current {
		seen[id] = false
	}
	for _, id := range ids {
		used, ok := seen[id]
		if !ok {
			return fmt.Errorf("%w: unknown id %q", ErrInvalidOrder, id)
		}
		if used {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidOrder, id)
		}
		seen[id] = true
	}
	return nil
}

func (s *Store) board(id string) (*model.Board, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, id)
	}
	return &s.boards[i], nil
}

func (s *Store) column(boardID, columnID string) (*model.Column, error) {
	b, err := s.board(boardID)
	if err != nil {
		return nil, err
	}
	i := b.Column(columnID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, columnID)
	}
	return &b.Columns[i], nil
}

// mergeLoaded returns a copy of incoming in which columns that arrived
// without tasks keep the tasks already loaded for the same column id
func mergeLoaded(old, incoming model.Board) model.Board {
	out := incoming.Clone()
	for i := range out.Columns {
		if j := old.Column(out.Columns[i].ID); j >= 0 {
			out.Columns[i] = mergeColumn(old.Columns[j], out.Columns[i])
		}
	}
	return out
}

func mergeColumn(old, incoming model.Column) model.Column {
	out := incoming.Clone()
	if !out.TasksLoaded && old.TasksLoaded {
		out.Tasks = old.Clone().Tasks
		out.TasksLoaded = true
	}
	return out
}
