package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/remote/remotetest"
)

func seeded(t *testing.T) (*remotetest.Server, *remote.Client) {
	t.Helper()
	srv := remotetest.NewServer(t)
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	srv.Seed(model.Board{
		ID:    "b1",
		Title: "Launch",
		Columns: []model.Column{
			{ID: "c1", Title: "Todo", Tasks: []model.Task{
				{ID: "t1", Title: "Write copy", Status: model.StatusTodo, Priority: model.PriorityHigh, Deadline: &due,
					SubTasks: []model.SubTask{{ID: "s1", Title: "Draft"}, {ID: "s2", Title: "Review"}}},
				{ID: "t2", Title: "Pick colours", Status: model.StatusTodo, Priority: model.PriorityLow},
			}},
			{ID: "c2", Title: "Doing"},
		},
	})
	c := remote.NewClient(srv.URL(), remote.WithTokenSource(remote.StaticToken(srv.Token)))
	return srv, c
}

func TestListBoardsAndColumns(t *testing.T) {
	_, c := seeded(t)
	ctx := context.Background()

	boards, err := c.ListBoards(ctx)
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	if len(boards) != 1 || boards[0].ID != "b1" || boards[0].Title != "Launch" {
		t.Fatalf("boards = %+v", boards)
	}
	if got := boards[0].ColumnIDs(); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("column ids = %v", got)
	}
	if boards[0].Columns[0].TasksLoaded {
		t.Error("listed columns must not claim loaded tasks")
	}

	cols, err := c.ListColumns(ctx, "b1")
	if err != nil {
		t.Fatalf("ListColumns failed: %v", err)
	}
	if len(cols) != 2 || cols[1].Title != "Doing" {
		t.Errorf("columns = %+v", cols)
	}
}

func TestListTasksDecodesWireFormat(t *testing.T) {
	_, c := seeded(t)

	tasks, err := c.ListTasks(context.Background(), "b1", "c1")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}

	t1 := tasks[0]
	if t1.Priority != model.PriorityHigh {
		t.Errorf("priority = %q, want high", t1.Priority)
	}
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if t1.Deadline == nil || !t1.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", t1.Deadline, want)
	}
	if len(t1.SubTasks) != 2 || t1.SubTasks[1].ID != "s2" {
		t.Errorf("subtasks = %+v", t1.SubTasks)
	}
	if tasks[1].Deadline != nil {
		t.Errorf("missing deadline decoded as %v", tasks[1].Deadline)
	}
}

func TestCreateBoardAssignsServerIDs(t *testing.T) {
	srv, c := seeded(t)

	b, err := c.CreateBoard(context.Background(), "Roadmap", []string{"Now", "Later"})
	if err != nil {
		t.Fatalf("CreateBoard failed: %v", err)
	}
	if b.ID == "" || model.IsPendingID(b.ID) {
		t.Errorf("board id = %q", b.ID)
	}
	if len(b.Columns) != 2 || b.Columns[0].ID == "" || b.Columns[1].Title != "Later" {
		t.Errorf("columns = %+v", b.Columns)
	}
	if !srv.HasBoard(b.ID) {
		t.Error("service did not store the board")
	}
}

func TestUpdateBoardSendsPendingColumnsWithoutID(t *testing.T) {
	srv, c := seeded(t)

	b, err := c.UpdateBoard(context.Background(), "b1", "Launch v2", []remote.ColumnInput{
		{ID: "c2", Title: "Doing"},
		{ID: "c1", Title: "Todo"},
		{ID: model.NewPendingID(), Title: "Done"},
	})
	if err != nil {
		t.Fatalf("UpdateBoard failed: %v", err)
	}
	if b.Title != "Launch v2" || len(b.Columns) != 3 {
		t.Fatalf("board = %+v", b)
	}
	if model.IsPendingID(b.Columns[2].ID) || b.Columns[2].ID == "" {
		t.Errorf("new column id = %q", b.Columns[2].ID)
	}
	if got := srv.ColumnIDs("b1")[:2]; !reflect.DeepEqual(got, []string{"c2", "c1"}) {
		t.Errorf("service order = %v", got)
	}
}

func TestCreateAndUpdateTask(t *testing.T) {
	srv, c := seeded(t)
	ctx := context.Background()
	due := time.Date(2025, 4, 2, 15, 4, 0, 0, time.UTC)

	created, err := c.CreateTask(ctx, "b1", "c2", remote.TaskInput{
		Title:       "Ship",
		Description: "Push the button",
		Deadline:    &due,
		Status:      model.StatusInProgress,
		Priority:    model.PriorityMedium,
		SubTasks:    []string{"Tag release"},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if created.ID == "" || len(created.SubTasks) != 1 {
		t.Fatalf("created = %+v", created)
	}
	if want := model.DateOf(due); created.Deadline == nil || !created.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", created.Deadline, want)
	}

	title := "Ship it"
	high := model.PriorityHigh
	updated, err := c.UpdateTask(ctx, "b1", "c2", created.ID, remote.TaskPatch{
		Title:         &title,
		Priority:      &high,
		ClearDeadline: true,
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Title != "Ship it" || updated.Priority != high || updated.Deadline != nil {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Description != "Push the button" {
		t.Error("unset patch fields must be left alone")
	}

	to := "c1"
	if _, err := c.UpdateTask(ctx, "b1", "c2", created.ID, remote.TaskPatch{ColumnID: &to}); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if got := srv.TaskIDs("b1", "c1"); got[len(got)-1] != created.ID {
		t.Errorf("task not moved, c1 = %v", got)
	}
}

func TestToggleSubTaskAndReorder(t *testing.T) {
	srv, c := seeded(t)
	ctx := context.Background()

	task, err := c.ToggleSubTask(ctx, "b1", "c1", "t1", "s2")
	if err != nil {
		t.Fatalf("ToggleSubTask failed: %v", err)
	}
	if task.SubTasks[0].Done || !task.SubTasks[1].Done {
		t.Errorf("subtasks = %+v", task.SubTasks)
	}

	if err := c.ReorderTasks(ctx, "b1", "c1", []string{"t2", "t1"}); err != nil {
		t.Fatalf("ReorderTasks failed: %v", err)
	}
	if got := srv.TaskIDs("b1", "c1"); !reflect.DeepEqual(got, []string{"t2", "t1"}) {
		t.Errorf("order = %v", got)
	}
}

func TestDeletes(t *testing.T) {
	srv, c := seeded(t)
	ctx := context.Background()

	if err := c.DeleteTask(ctx, "b1", "c1", "t2"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := c.DeleteColumn(ctx, "b1", "c2"); err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}
	if got := srv.ColumnIDs("b1"); !reflect.DeepEqual(got, []string{"c1"}) {
		t.Errorf("columns = %v", got)
	}
	if err := c.DeleteBoard(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBoard failed: %v", err)
	}
	if srv.HasBoard("b1") {
		t.Error("board still stored")
	}

	err := c.DeleteBoard(ctx, "b1")
	if !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestErrors(t *testing.T) {
	srv, _ := seeded(t)
	ctx := context.Background()

	anon := remote.NewClient(srv.URL())
	_, err := anon.ListBoards(ctx)
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}

	c := remote.NewClient(srv.URL(), remote.WithTokenSource(remote.StaticToken(srv.Token)))
	srv.FailNext(http.MethodGet, "/boards")
	_, err = c.ListBoards(ctx)
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "injected failure" {
		t.Errorf("apiErr = %+v", apiErr)
	}

	if _, err := c.ListBoards(ctx); err != nil {
		t.Errorf("failure must only apply once: %v", err)
	}
}

func TestErrorMessageFallsBackToBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer ts.Close()

	_, err := remote.NewClient(ts.URL).GetBoard(context.Background(), "b1")
	var apiErr *remote.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" {
		t.Errorf("err = %v", err)
	}
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]any{})
	}))
	defer ts.Close()

	c := remote.NewClient(ts.URL, remote.WithTokenSource(remote.StaticToken("abc")))
	if _, err := c.ListBoards(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer abc" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestAuth(t *testing.T) {
	srv := remotetest.NewServer(t)
	a := remote.NewAuthClient(srv.URL())
	ctx := context.Background()

	err := a.Signup(ctx, remote.SignupInput{Email: "ana@example.com", Password: "hunter22!", Name: "Ana", Surname: "Lee"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	token, err := a.Login(ctx, "ana@example.com", "hunter22!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != srv.Token {
		t.Errorf("token = %q", token)
	}

	_, err = a.Login(ctx, "ana@example.com", "wrong-password")
	if !errors.Is(err, remote.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    remote.SignupInput
		field string
		msg   string
	}{
		{"missing email", remote.SignupInput{Password: "password1", Name: "Ana", Surname: "Lee"}, "email", "Email is required"},
		{"bad email", remote.SignupInput{Email: "ana", Password: "password1", Name: "Ana", Surname: "Lee"}, "email", "Invalid email address"},
		{"short password", remote.SignupInput{Email: "a@b.co", Password: "short", Name: "Ana", Surname: "Lee"}, "password", "Password must be at least 8 characters"},
		{"short name", remote.SignupInput{Email: "a@b.co", Password: "password1", Name: "A", Surname: "Lee"}, "name", "Name must be at least 2 characters long"},
		{"digits in surname", remote.SignupInput{Email: "a@b.co", Password: "password1", Name: "Ana", Surname: "L33"}, "surname", "Invalid characters in surname"},
	}

	srv := remotetest.NewServer(t)
	a := remote.NewAuthClient(srv.URL())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Signup(context.Background(), tt.in)
			var fe *remote.FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("err = %v, want *FieldError", err)
			}
			if fe.Field != tt.field || fe.Message != tt.msg {
				t.Errorf("got %s %q, want %s %q", fe.Field, fe.Message, tt.field, tt.msg)
			}
		})
	}

	if n := srv.Count("", "/auth"); n != 0 {
		t.Errorf("invalid signups reached the service %d times", n)
	}
}
