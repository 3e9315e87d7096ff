package notify

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDrainReturnsInOrderAndClears(t *testing.T) {
	n := NewNotifier(zerolog.Nop())

	n.Success(EntityBoard, ActionAdd, "Board added successfully!")
	n.Failure(EntityTask, ActionDelete, "")
	n.Info("Refreshing")

	got := n.Drain()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Level != LevelSuccess || got[0].Message != "Board added successfully!" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Message != "Failed to delete task." {
		t.Errorf("failure fallback message = %q", got[1].Message)
	}
	if got[1].Entity != EntityTask || got[1].Action != ActionDelete {
		t.Errorf("failure must name entity and action, got %+v", got[1])
	}
	if got[2].At.IsZero() {
		t.Error("timestamp not set")
	}
	if n.Len() != 0 || len(n.Drain()) != 0 {
		t.Error("drain did not clear the queue")
	}
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	n.capacity = 2

	n.Info("one")
	n.Info("two")
	n.Info("three")

	got := n.Drain()
	if len(got) != 2 || got[0].Message != "two" || got[1].Message != "three" {
		t.Errorf("queue = %+v", got)
	}
}

func TestSubscribersSeeEveryNotification(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	var seen []string
	n.Subscribe(func(note Notification) { seen = append(seen, note.Message) })

	n.Info("a")
	n.Failure(EntityColumn, ActionRename, "")

	want := []string{"a", "Failed to rename column."}
	if !reflect.DeepEqual(seen, want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func TestDesktopArgs(t *testing.T) {
	d := NewDesktop(4 * time.Second)
	args := d.Args(Notification{Level: LevelFailure, Entity: EntityBoard, Message: "Failed to add board."})

	want := []string{"-u", "critical", "-t", "4000", "-a", "plando", "plando: board", "Failed to add board."}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestDesktopAttach(t *testing.T) {
	n := NewNotifier(zerolog.Nop())
	d := NewDesktop(0)
	var calls [][]string
	d.run = func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return errors.New("no notification daemon")
	}
	d.Attach(n)

	n.Success(EntityTask, ActionAdd, "Task added successfully!")

	if len(calls) != 1 || calls[0][0] != "notify-send" {
		t.Fatalf("calls = %v", calls)
	}
	if n.Len() != 1 {
		t.Error("desktop failure must not swallow the queued notification")
	}
}
