package optimistic

import (
	"errors"
	"fmt"

	"github.com/dori/plando/internal/notify"
)

// ErrNoChange is returned when a mutation would leave everything as it is,
// e.g. moving a task to the column it is already in
var ErrNoChange = errors.New("nothing to change")

// ValidationError is a required field that is empty or malformed. It is
// rendered next to the field; no store write and no network call happened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MissingReferenceError is an operation against an id that is required but
// absent. It is surfaced like a remote failure; no network call happened.
type MissingReferenceError struct {
	Entity  notify.Entity
	Action  notify.Action
	Message string
}

func (e *MissingReferenceError) Error() string {
	return e.Message
}

// MutationError is a mutation that failed after its optimistic write began,
// either remotely or in the store. The write has been undone and the failure
// notified.
type MutationError struct {
	Entity notify.Entity
	Action notify.Action
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Action, e.Entity, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
