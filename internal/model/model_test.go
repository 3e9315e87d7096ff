package model

import (
	"testing"
	"time"
)

func TestCloneIsDeep(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := Board{
		ID:    "b1",
		Title: "Board",
		Columns: []Column{{
			ID:    "c1",
			Title: "Todo",
			Tasks: []Task{{
				ID:       "t1",
				Title:    "Task",
				Deadline: &due,
				SubTasks: []SubTask{{ID: "s1", Title: "Sub"}},
			}},
		}},
	}

	c := b.Clone()
	c.Columns[0].Title = "Changed"
	c.Columns[0].Tasks[0].SubTasks[0].Done = true
	*c.Columns[0].Tasks[0].Deadline = due.AddDate(0, 0, 1)

	if b.Columns[0].Title != "Todo" {
		t.Errorf("column title leaked into original: %q", b.Columns[0].Title)
	}
	if b.Columns[0].Tasks[0].SubTasks[0].Done {
		t.Error("subtask change leaked into original")
	}
	if !b.Columns[0].Tasks[0].Deadline.Equal(due) {
		t.Error("deadline change leaked into original")
	}
}

func TestPendingID(t *testing.T) {
	id := NewPendingID()
	if !IsPendingID(id) {
		t.Fatalf("IsPendingID(%q) = false", id)
	}
	if IsPendingID("65f1c0ffee") {
		t.Error("server id reported as pending")
	}
	if NewPendingID() == id {
		t.Error("pending ids must be unique")
	}
}

func TestStatusAndPriorityCycle(t *testing.T) {
	s := StatusTodo
	for _, want := range []Status{StatusInProgress, StatusDone, StatusTodo} {
		s = s.Next()
		if s != want {
			t.Fatalf("Status.Next() = %q, want %q", s, want)
		}
	}

	p := PriorityLow
	for _, want := range []Priority{PriorityMedium, PriorityHigh, PriorityLow} {
		p = p.Next()
		if p != want {
			t.Fatalf("Priority.Next() = %q, want %q", p, want)
		}
	}

	if Status("archived").Valid() {
		t.Error("unknown status reported valid")
	}
	if Priority("urgent").Valid() {
		t.Error("unknown priority reported valid")
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	yesterday := DateOf(now).AddDate(0, 0, -1)
	today := DateOf(now)

	task := Task{Deadline: &yesterday, Status: StatusTodo}
	if !task.IsOverdue(now) {
		t.Error("task due yesterday should be overdue")
	}
	task.Status = StatusDone
	if task.IsOverdue(now) {
		t.Error("done task should never be overdue")
	}

	task = Task{Deadline: &today}
	if task.IsOverdue(now) {
		t.Error("task due today is not overdue")
	}
	if !task.IsDueToday(now) {
		t.Error("task should be due today")
	}
}

func TestSubTaskProgress(t *testing.T) {
	task := Task{SubTasks: []SubTask{{ID: "a", Done: true}, {ID: "b"}, {ID: "c", Done: true}}}
	done, total := task.SubTaskProgress()
	if done != 2 || total != 3 {
		t.Errorf("SubTaskProgress() = %d/%d, want 2/3", done, total)
	}
	if task.SubTask("b") != 1 || task.SubTask("zz") != -1 {
		t.Error("SubTask index lookup is wrong")
	}
}
