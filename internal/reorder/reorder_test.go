package reorder_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/remote/remotetest"
	"github.com/dori/plando/internal/reorder"
	"github.com/dori/plando/internal/store"
	"github.com/rs/zerolog"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		seq    []string
		moved  string
		target string
		want   []string
		ok     bool
	}{
		{"backward", []string{"a", "b", "c", "d"}, "c", "a", []string{"c", "a", "b", "d"}, true},
		{"forward", []string{"a", "b", "c", "d"}, "a", "c", []string{"b", "c", "a", "d"}, true},
		{"adjacent forward", []string{"a", "b", "c"}, "a", "b", []string{"b", "a", "c"}, true},
		{"to end", []string{"a", "b", "c"}, "a", "c", []string{"b", "c", "a"}, true},
		{"two columns", []string{"c1", "c2"}, "c2", "c1", []string{"c2", "c1"}, true},
		{"same id", []string{"a", "b"}, "a", "a", []string{"a", "b"}, false},
		{"unknown moved", []string{"a", "b"}, "x", "a", []string{"a", "b"}, false},
		{"unknown target", []string{"a", "b"}, "a", "x", []string{"a", "b"}, false},
		{"empty", nil, "a", "b", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reorder.Move(tt.seq, tt.moved, tt.target)
			if ok != tt.ok || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Move(%v, %q, %q) = %v, %v, want %v, %v", tt.seq, tt.moved, tt.target, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMoveDoesNotAliasInput(t *testing.T) {
	seq := []string{"a", "b", "c"}
	reorder.Move(seq, "c", "a")
	if !reflect.DeepEqual(seq, []string{"a", "b", "c"}) {
		t.Errorf("input modified: %v", seq)
	}
}

// TestMoveRelocatesExactlyOne checks every (moved, target) pair for
// sequences up to length 7
func TestMoveRelocatesExactlyOne(t *testing.T) {
	for n := 1; n <= 7; n++ {
		seq := make([]string, n)
		for i := range seq {
			seq[i] = fmt.Sprintf("id%d", i)
		}

		for from := 0; from < n; from++ {
			for to := 0; to < n; to++ {
				got, ok := reorder.Move(seq, seq[from], seq[to])
				if from == to {
					if ok || !reflect.DeepEqual(got, seq) {
						t.Fatalf("n=%d %d->%d: want no-op, got %v %v", n, from, to, got, ok)
					}
					continue
				}
				if !ok || len(got) != n {
					t.Fatalf("n=%d %d->%d: got %v %v", n, from, to, got, ok)
				}
				if got[to] != seq[from] {
					t.Errorf("n=%d %d->%d: moved id at %v", n, from, to, got)
				}

				var rest, gotRest []string
				for i, id := range seq {
					if i != from {
						rest = append(rest, id)
					}
				}
				for i, id := range got {
					if i != to {
						gotRest = append(gotRest, id)
					}
				}
				if !reflect.DeepEqual(rest, gotRest) {
					t.Errorf("n=%d %d->%d: others reordered: %v", n, from, to, got)
				}
			}
		}
	}
}

func newHandler(t *testing.T) (reorder.Handler, *store.Store, *remotetest.Server) {
	t.Helper()
	srv := remotetest.NewServer(t)
	srv.Seed(model.Board{ID: "B1", Title: "Launch", Columns: []model.Column{
		{ID: "c1", Title: "Todo", Tasks: []model.Task{
			{ID: "t1", Title: "One", Description: "1"},
			{ID: "t2", Title: "Two", Description: "2"},
			{ID: "t3", Title: "Three", Description: "3"},
		}},
		{ID: "c2", Title: "Doing"},
	}})

	client := remote.NewClient(srv.URL(), remote.WithTokenSource(remote.StaticToken(srv.Token)))
	st := store.New()
	c := optimistic.New(st, client, notify.NewNotifier(zerolog.Nop()), zerolog.Nop())
	if err := c.ApplyLoad(c.LoadBoard(context.Background(), "B1")); err != nil {
		t.Fatal(err)
	}
	return reorder.Handler{Coordinator: c}, st, srv
}

func columnIDs(st *store.Store) []string {
	b, _ := st.Board("B1")
	return b.ColumnIDs()
}

func taskIDs(st *store.Store) []string {
	var ids []string
	for _, task := range store.ColumnTasks(st, "B1", "c1") {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestHandlerColumnsRestoresExactOrderOnFailure(t *testing.T) {
	h, st, srv := newHandler(t)

	op, err := h.Columns("B1", "c2", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got := columnIDs(st); !reflect.DeepEqual(got, []string{"c2", "c1"}) {
		t.Fatalf("optimistic order = %v", got)
	}

	srv.FailNext(http.MethodPut, "/boards/B1")
	if err := h.Coordinator.Exec(context.Background(), op); err == nil {
		t.Fatal("expected failure")
	}
	if got := columnIDs(st); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("order = %v, want [c1 c2]", got)
	}
}

func TestHandlerTasks(t *testing.T) {
	h, st, srv := newHandler(t)

	op, err := h.Tasks("B1", "c1", "t3", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Coordinator.Exec(context.Background(), op); err != nil {
		t.Fatal(err)
	}
	want := []string{"t3", "t1", "t2"}
	if got := taskIDs(st); !reflect.DeepEqual(got, want) {
		t.Errorf("store order = %v", got)
	}
	if got := srv.TaskIDs("B1", "c1"); !reflect.DeepEqual(got, want) {
		t.Errorf("service order = %v", got)
	}
}

func TestHandlerNoOpLeavesStoreAlone(t *testing.T) {
	h, st, srv := newHandler(t)
	before := st.Snapshot()
	requests := len(srv.Requests())

	drops := [][2]string{{"t1", "t1"}, {"t1", "nope"}, {"nope", "t2"}}
	for _, d := range drops {
		op, err := h.Tasks("B1", "c1", d[0], d[1])
		if op != nil || !errors.Is(err, optimistic.ErrNoChange) {
			t.Errorf("drop %v: op=%v err=%v", d, op, err)
		}
	}
	if _, err := h.Columns("B1", "c1", "c1"); !errors.Is(err, optimistic.ErrNoChange) {
		t.Errorf("column self-drop err = %v", err)
	}

	if !reflect.DeepEqual(st.Snapshot(), before) {
		t.Error("store changed")
	}
	if len(srv.Requests()) != requests {
		t.Error("no-op drops made requests")
	}
}
