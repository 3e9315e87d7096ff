package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dori/plando/internal/model"
)

// fixture builds board b1 with columns c1 (two tasks) and c2 (one task),
// plus an empty board b2
func fixture(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := New(opts...)
	s.ReplaceBoards([]model.Board{
		{
			ID:    "b1",
			Title: "Website",
			Columns: []model.Column{
				{
					ID: "c1", Title: "Todo", TasksLoaded: true,
					Tasks: []model.Task{
						{
							ID: "t1", Title: "Header", Description: "Plan header",
							Status: model.StatusTodo, Priority: model.PriorityHigh,
							SubTasks: []model.SubTask{
								{ID: "s1", Title: "Logo"},
								{ID: "s2", Title: "Nav", Done: true},
							},
						},
						{ID: "t2", Title: "Footer", Status: model.StatusTodo, Priority: model.PriorityLow},
					},
				},
				{
					ID: "c2", Title: "Doing", TasksLoaded: true,
					Tasks: []model.Task{{ID: "t3", Title: "Hero", Status: model.StatusInProgress}},
				},
			},
		},
		{ID: "b2", Title: "Garden"},
	})
	return s
}

func TestSetActiveBoardDoesNotFetchOrValidate(t *testing.T) {
	s := fixture(t)
	v := s.Version()

	s.SetActiveBoard("b1")
	if s.ActiveBoardID() != "b1" {
		t.Fatalf("ActiveBoardID() = %q, want b1", s.ActiveBoardID())
	}
	if s.Version() != v+1 {
		t.Errorf("version = %d, want %d", s.Version(), v+1)
	}

	s.SetActiveBoard("b1")
	if s.Version() != v+1 {
		t.Error("selecting the same board again must not count as a change")
	}

	s.SetActiveBoard("")
	if s.ActiveBoardID() != "" {
		t.Error("empty id should clear the selection")
	}
}

func TestReplaceBoardIsIdempotent(t *testing.T) {
	s := fixture(t)
	b, _ := s.Board("b1")
	v := s.Version()
	before := s.Snapshot()

	s.ReplaceBoard(b)
	s.ReplaceBoard(b)

	if s.Version() != v {
		t.Errorf("replacing with an identical board changed version %d -> %d", v, s.Version())
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("replacing with an identical board changed content")
	}
}

func TestReplaceBoardKeepsLoadedTasks(t *testing.T) {
	s := fixture(t)

	// as returned by "get board": columns without task detail, one renamed
	s.ReplaceBoard(model.Board{
		ID:    "b1",
		Title: "Website v2",
		Columns: []model.Column{
			{ID: "c2", Title: "In progress"},
			{ID: "c1", Title: "Todo"},
			{ID: "c9", Title: "Done"},
		},
	})

	b, _ := s.Board("b1")
	if b.Title != "Website v2" {
		t.Errorf("title = %q", b.Title)
	}
	if got := b.ColumnIDs(); !reflect.DeepEqual(got, []string{"c2", "c1", "c9"}) {
		t.Errorf("column order = %v", got)
	}
	if len(b.Columns[1].Tasks) != 2 || !b.Columns[1].TasksLoaded {
		t.Error("tasks of surviving column c1 were dropped")
	}
	if b.Columns[2].TasksLoaded {
		t.Error("new column must not be marked loaded")
	}
}

func TestRemoveBoardCascadesAndClearsSelection(t *testing.T) {
	s := fixture(t)
	s.SetActiveBoard("b1")

	s.RemoveBoard("b1")

	if _, ok := s.Board("b1"); ok {
		t.Fatal("board still present")
	}
	if s.ActiveBoardID() != "" {
		t.Errorf("active = %q, want none", s.ActiveBoardID())
	}
	if tasks := ColumnTasks(s, "b1", "c1"); tasks != nil {
		t.Errorf("tasks of removed board still reachable: %v", tasks)
	}
	if _, ok := TaskByID(s, "b1", "c2", "t3"); ok {
		t.Error("task of removed board still reachable")
	}

	s.SetActiveBoard("b2")
	s.RemoveBoard("missing")
	if s.ActiveBoardID() != "b2" {
		t.Error("removing an unknown board must not touch the selection")
	}
}

func TestRemoveColumnCascades(t *testing.T) {
	s := fixture(t)

	if err := s.RemoveColumn("b1", "c1"); err != nil {
		t.Fatalf("RemoveColumn: %v", err)
	}
	if _, ok := TaskByID(s, "b1", "c1", "t1"); ok {
		t.Error("task of removed column still reachable")
	}
	b, _ := s.Board("b1")
	if !reflect.DeepEqual(b.ColumnIDs(), []string{"c2"}) {
		t.Errorf("columns = %v", b.ColumnIDs())
	}

	if err := s.RemoveColumn("nope", "c2"); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("err = %v, want ErrBoardNotFound", err)
	}
}

func TestReplaceAndRemoveTask(t *testing.T) {
	s := fixture(t)

	task, _ := TaskByID(s, "b1", "c1", "t2")
	task.Title = "Footer links"
	if err := s.ReplaceTask("b1", "c1", task); err != nil {
		t.Fatal(err)
	}
	got, _ := TaskByID(s, "b1", "c1", "t2")
	if got.Title != "Footer links" {
		t.Errorf("title = %q", got.Title)
	}

	if err := s.ReplaceTask("b1", "c1", model.Task{ID: "t4", Title: "New"}); err != nil {
		t.Fatal(err)
	}
	if ids := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(ids, []string{"t1", "t2", "t4"}) {
		t.Errorf("unknown task should be appended, got %v", ids)
	}

	if err := s.RemoveTask("b1", "c1", "t1"); err != nil {
		t.Fatal(err)
	}
	if ids := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(ids, []string{"t2", "t4"}) {
		t.Errorf("after remove = %v", ids)
	}

	if err := s.ReplaceTask("b1", "cX", task); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestConfirmTaskSwapsPendingID(t *testing.T) {
	s := fixture(t)
	pending := model.Task{ID: model.NewPendingID(), Title: "Draft", Pending: true}
	if err := s.ReplaceTask("b1", "c2", pending); err != nil {
		t.Fatal(err)
	}

	if err := s.ConfirmTask("b1", "c2", pending.ID, model.Task{ID: "t9", Title: "Draft"}); err != nil {
		t.Fatal(err)
	}

	if ids := tasksOf(t, s, "b1", "c2"); !reflect.DeepEqual(ids, []string{"t3", "t9"}) {
		t.Errorf("tasks = %v", ids)
	}
}

func TestConfirmBoardMovesSelection(t *testing.T) {
	s := fixture(t)
	pendingID := model.NewPendingID()
	s.ReplaceBoard(model.Board{ID: pendingID, Title: "Draft", Pending: true})
	s.SetActiveBoard(pendingID)

	s.ConfirmBoard(pendingID, model.Board{ID: "b3", Title: "Draft"})

	if s.ActiveBoardID() != "b3" {
		t.Errorf("active = %q, want b3", s.ActiveBoardID())
	}
	if _, ok := s.Board(pendingID); ok {
		t.Error("pending board still present")
	}
	refs := BoardRefs(s)
	if len(refs) != 3 || refs[2].ID != "b3" {
		t.Errorf("boards = %+v", refs)
	}
}

func TestToggleSubtaskFlipsOnlyThatSubtask(t *testing.T) {
	s := fixture(t)
	before, _ := TaskByID(s, "b1", "c1", "t1")

	if err := s.ToggleSubtask("b1", "c1", "t1", "s1"); err != nil {
		t.Fatal(err)
	}

	after, _ := TaskByID(s, "b1", "c1", "t1")
	if !after.SubTasks[0].Done {
		t.Error("s1 should be done")
	}
	after.SubTasks[0].Done = false
	if !reflect.DeepEqual(before, after) {
		t.Errorf("toggle changed other fields:\nbefore %+v\nafter  %+v", before, after)
	}

	if err := s.ToggleSubtask("b1", "c1", "t1", "zz"); !errors.Is(err, ErrSubTaskNotFound) {
		t.Errorf("err = %v, want ErrSubTaskNotFound", err)
	}
}

func TestReorder(t *testing.T) {
	s := fixture(t)

	if err := s.ReorderColumns("b1", []string{"c2", "c1"}); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Board("b1")
	if !reflect.DeepEqual(b.ColumnIDs(), []string{"c2", "c1"}) {
		t.Errorf("columns = %v", b.ColumnIDs())
	}
	if len(b.Columns[1].Tasks) != 2 {
		t.Error("reorder lost tasks")
	}

	if err := s.ReorderTasks("b1", "c1", []string{"t2", "t1"}); err != nil {
		t.Fatal(err)
	}
	if ids := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(ids, []string{"t2", "t1"}) {
		t.Errorf("tasks = %v", ids)
	}
}

func TestReorderRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{"dropped", []string{"c1"}},
		{"duplicated", []string{"c1", "c1"}},
		{"unknown", []string{"c1", "c7"}},
		{"extra", []string{"c1", "c2", "c3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixture(t)
			before := s.Snapshot()

			err := s.ReorderColumns("b1", tt.ids)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Fatalf("err = %v, want ErrInvalidOrder", err)
			}
			if !reflect.DeepEqual(before, s.Snapshot()) {
				t.Error("rejected reorder modified the store")
			}
		})
	}
}

func TestReorderPanicsWhenStrict(t *testing.T) {
	s := fixture(t, WithStrict(true))

	defer func() {
		if recover() == nil {
			t.Error("expected panic in strict mode")
		}
	}()
	s.ReorderTasks("b1", "c1", []string{"t1"})
}

func TestRestoreBoard(t *testing.T) {
	t.Run("removed board comes back at its index", func(t *testing.T) {
		s := fixture(t)
		s.SetActiveBoard("b1")
		before := s.Snapshot()
		snap := s.BoardSnapshot("b1")

		s.RemoveBoard("b1")
		s.RestoreBoard(snap)

		if !reflect.DeepEqual(before, s.Snapshot()) {
			t.Errorf("restore mismatch:\nwant %+v\ngot  %+v", before, s.Snapshot())
		}
	})

	t.Run("board that did not exist is dropped", func(t *testing.T) {
		s := fixture(t)
		before := s.Snapshot()
		id := model.NewPendingID()
		snap := s.BoardSnapshot(id)

		s.ReplaceBoard(model.Board{ID: id, Title: "Draft", Pending: true})
		s.SetActiveBoard(id)
		s.RestoreBoard(snap)

		if !reflect.DeepEqual(before, s.Snapshot()) {
			t.Errorf("restore mismatch:\nwant %+v\ngot  %+v", before, s.Snapshot())
		}
	})

	t.Run("other boards are untouched", func(t *testing.T) {
		s := fixture(t)
		snap := s.BoardSnapshot("b1")

		s.ReplaceBoard(model.Board{ID: "b2", Title: "Garden (renamed)"})
		s.RemoveColumn("b1", "c2")
		s.RestoreBoard(snap)

		b2, _ := s.Board("b2")
		if b2.Title != "Garden (renamed)" {
			t.Error("restore of b1 reverted b2")
		}
		b1, _ := s.Board("b1")
		if len(b1.Columns) != 2 {
			t.Error("b1 was not restored")
		}
	})
}

func TestReplaceBoardsDropsVanishedSelection(t *testing.T) {
	s := fixture(t)
	s.SetActiveBoard("b2")

	s.ReplaceBoards([]model.Board{{ID: "b1", Title: "Website"}})

	if s.ActiveBoardID() != "" {
		t.Errorf("active = %q, want none", s.ActiveBoardID())
	}
	if len(ColumnTasks(s, "b1", "c1")) != 0 {
		t.Error("columns were not replaced by the listed board")
	}
}

func tasksOf(t *testing.T, s *Store, boardID, columnID string) []string {
	t.Helper()
	tasks := ColumnTasks(s, boardID, columnID)
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func TestRestoreTask(t *testing.T) {
	t.Run("removed task comes back at its index", func(t *testing.T) {
		s := fixture(t)
		snap, ok := s.TaskSnapshot("b1", "c1", "t1")
		if !ok {
			t.Fatal("t1 not captured")
		}
		s.RemoveTask("b1", "c1", "t1")
		s.ReplaceTask("b1", "c1", model.Task{ID: "t9", Title: "Added meanwhile"})

		if err := s.RestoreTask(snap); err != nil {
			t.Fatal(err)
		}
		if got := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(got, []string{"t1", "t2", "t9"}) {
			t.Errorf("tasks = %v, want [t1 t2 t9]", got)
		}
	})

	t.Run("present task is overwritten in place", func(t *testing.T) {
		s := fixture(t)
		snap, _ := s.TaskSnapshot("b1", "c1", "t2")
		s.ReorderTasks("b1", "c1", []string{"t2", "t1"})
		s.ReplaceTask("b1", "c1", model.Task{ID: "t2", Title: "Changed"})

		s.RestoreTask(snap)

		if got := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(got, []string{"t2", "t1"}) {
			t.Errorf("restore moved the task: %v", got)
		}
		if task, _ := TaskByID(s, "b1", "c1", "t2"); task.Title != "Footer" {
			t.Errorf("title = %q, want Footer", task.Title)
		}
	})

	if _, ok := fixture(t).TaskSnapshot("b1", "c1", "nope"); ok {
		t.Error("snapshot of an unknown task")
	}
}

func TestRestoreColumn(t *testing.T) {
	s := fixture(t)
	snap, ok := s.ColumnSnapshot("b1", "c1")
	if !ok {
		t.Fatal("c1 not captured")
	}
	s.RemoveColumn("b1", "c1")
	s.ReplaceColumn("b1", model.Column{ID: "c3", Title: "Done"})

	if err := s.RestoreColumn(snap); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Board("b1")
	if got := b.ColumnIDs(); !reflect.DeepEqual(got, []string{"c1", "c2", "c3"}) {
		t.Errorf("columns = %v", got)
	}
	if got := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Errorf("tasks = %v", got)
	}

	v := s.Version()
	s.RestoreColumn(snap)
	if s.Version() != v {
		t.Error("restoring a present column changed the store")
	}
}

func TestRestoreOrder(t *testing.T) {
	s := fixture(t)
	prior := []string{"t1", "t2"}

	s.ReorderTasks("b1", "c1", []string{"t2", "t1"})
	s.ReplaceTask("b1", "c1", model.Task{ID: "t9"})
	if err := s.RestoreTaskOrder("b1", "c1", prior); err != nil {
		t.Fatal(err)
	}
	if got := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(got, []string{"t1", "t2", "t9"}) {
		t.Errorf("tasks = %v, want [t1 t2 t9]", got)
	}

	s.RemoveTask("b1", "c1", "t1")
	if err := s.RestoreTaskOrder("b1", "c1", []string{"t9", "t1", "t2"}); err != nil {
		t.Fatal(err)
	}
	if got := tasksOf(t, s, "b1", "c1"); !reflect.DeepEqual(got, []string{"t9", "t2"}) {
		t.Errorf("tasks = %v, want [t9 t2]", got)
	}

	s.ReorderColumns("b1", []string{"c2", "c1"})
	if err := s.RestoreColumnOrder("b1", []string{"c1", "c2"}); err != nil {
		t.Fatal(err)
	}
	b, _ := s.Board("b1")
	if got := b.ColumnIDs(); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("columns = %v", got)
	}
}
