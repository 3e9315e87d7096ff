// Package notify carries the fire-and-forget notification stream that
// tells the user whether a mutation went through.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is the tone of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelFailure
)

// String returns the display name of the level
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelFailure:
		return "failure"
	default:
		return "info"
	}
}

// Entity names what kind of object a notification is about
type Entity string

const (
	EntityBoard   Entity = "board"
	EntityColumn  Entity = "column"
	EntityTask    Entity = "task"
	EntitySubTask Entity = "subtask"
	EntityNone    Entity = ""
)

// Action names what was attempted
type Action string

const (
	ActionLoad    Action = "load"
	ActionAdd     Action = "add"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionRename  Action = "rename"
	ActionReorder Action = "reorder"
	ActionMove    Action = "move"
	ActionToggle  Action = "toggle"
)

// Notification is one toast
type Notification struct {
	Level   Level
	Entity  Entity
	Action  Action
	Message string
	At      time.Time
}

// FailureMessage returns the default text for a failed action,
// e.g. "Failed to add board."
func FailureMessage(entity Entity, action Action) string {
	return fmt.Sprintf("Failed to %s %s.", action, entity)
}

const defaultCapacity = 64

// Notifier queues notifications until the UI drains them
type Notifier struct {
	mu          sync.Mutex
	queue       []Notification
	capacity    int
	subscribers []func(Notification)
	now         func() time.Time
	logger      zerolog.Logger
}

// NewNotifier creates a notifier with a bounded queue
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		capacity: defaultCapacity,
		now:      time.Now,
		logger:   logger,
	}
}

// Subscribe registers a sink that sees every notification as it is published
func (n *Notifier) Subscribe(fn func(Notification)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subscribers = append(n.subscribers, fn)
}

// Publish queues a notification. When the queue is full the oldest entry
// is dropped and logged.
func (n *Notifier) Publish(note Notification) {
	if note.At.IsZero() {
		note.At = n.now()
	}

	n.mu.Lock()
	if len(n.queue) >= n.capacity {
		dropped := n.queue[0]
		n.queue = n.queue[1:]
		n.logger.Warn().
			Str("message", dropped.Message).
			Msg("notification queue full, dropped oldest")
	}
	n.queue = append(n.queue, note)
	subs := make([]func(Notification), len(n.subscribers))
	copy(subs, n.subscribers)
	n.mu.Unlock()

	for _, fn := range subs {
		fn(note)
	}
}

// Success publishes a positive confirmation
func (n *Notifier) Success(entity Entity, action Action, message string) {
	n.Publish(Notification{Level: LevelSuccess, Entity: entity, Action: action, Message: message})
}

// Failure publishes a negative confirmation. An empty message falls back
// to FailureMessage.
func (n *Notifier) Failure(entity Entity, action Action, message string) {
	if message == "" {
		message = FailureMessage(entity, action)
	}
	n.Publish(Notification{Level: LevelFailure, Entity: entity, Action: action, Message: message})
}

// Info publishes a neutral message
func (n *Notifier) Info(message string) {
	n.Publish(Notification{Level: LevelInfo, Message: message})
}

// Drain returns and clears every queued notification, oldest first
func (n *Notifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	return out
}

// Len returns the number of queued notifications
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.queue)
}
