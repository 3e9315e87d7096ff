// Package optimistic applies board mutations locally before the board
// service confirms them, and rolls them back when it does not.
//
// Every mutation is split in three steps so it fits an event loop:
//
//	op, err := c.AddBoard(draft) // on the loop: validate, optimistic write
//	out := op.Do(ctx)            // anywhere: the remote call, no store access
//	err = c.Settle(out)          // on the loop: confirm or roll back
//
// A rollback undoes only what its own op wrote: the task, the column, the
// order or the pending entity it touched. Mutations in flight against the
// same entity are not coordinated; the one settled last wins.
package optimistic

import (
	"context"
	"errors"
	"fmt"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/store"
	"github.com/rs/zerolog"
)

// Coordinator owns every write to the store that has a remote counterpart
type Coordinator struct {
	st     *store.Store
	svc    remote.BoardService
	notes  *notify.Notifier
	logger zerolog.Logger
}

// New creates a coordinator
func New(st *store.Store, svc remote.BoardService, notes *notify.Notifier, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		st:     st,
		svc:    svc,
		notes:  notes,
		logger: logger,
	}
}

// Store returns the store the coordinator writes to
func (c *Coordinator) Store() *store.Store {
	return c.st
}

// Op is a mutation whose optimistic write has been applied and whose remote
// call has not been made yet
type Op struct {
	Entity  notify.Entity
	Action  notify.Action
	BoardID string

	svc     remote.BoardService
	undo    func(st *store.Store)
	call    func(ctx context.Context, svc remote.BoardService) (any, error)
	confirm func(st *store.Store, result any) error
	success string
	failure string
	settled bool
}

// Outcome is the result of an op's remote call
type Outcome struct {
	op     *Op
	result any
	err    error
}

// Op returns the op the outcome belongs to
func (o Outcome) Op() *Op {
	return o.op
}

// Err returns the remote error, if any
func (o Outcome) Err() error {
	return o.err
}

// Do performs the remote call. It does not touch the store and may run on
// any goroutine.
func (op *Op) Do(ctx context.Context) Outcome {
	res, err := op.call(ctx, op.svc)
	return Outcome{op: op, result: res, err: err}
}

// Settle confirms or rolls back an op. It must run on the loop that owns
// the store. A failed remote call is returned as *MutationError after the
// rollback and the failure notification.
func (c *Coordinator) Settle(out Outcome) error {
	op := out.op
	if op == nil || op.settled {
		return nil
	}
	op.settled = true

	log := c.logger.With().
		Str("entity", string(op.Entity)).
		Str("action", string(op.Action)).
		Str("board_id", op.BoardID).
		Logger()

	if out.err != nil {
		if op.undo != nil {
			op.undo(c.st)
		}
		log.Error().Err(out.err).Msg("mutation failed, rolled back")
		c.notes.Failure(op.Entity, op.Action, op.failure)
		return &MutationError{Entity: op.Entity, Action: op.Action, Err: out.err}
	}

	if op.confirm != nil {
		if err := op.confirm(c.st, out.result); err != nil {
			// the target vanished locally while the call was in flight
			log.Warn().Err(err).Msg("confirmed mutation no longer applies locally")
		}
	}
	log.Info().Msg("mutation confirmed")
	c.notes.Success(op.Entity, op.Action, op.success)
	return nil
}

// Reject publishes an error a mutation returned before any remote call.
// Validation errors, ErrNoChange and errors the coordinator has already
// notified are skipped.
func (c *Coordinator) Reject(err error) {
	var (
		verr *ValidationError
		mref *MissingReferenceError
		merr *MutationError
	)
	switch {
	case err == nil, errors.Is(err, ErrNoChange):
		return
	case errors.As(err, &verr), errors.As(err, &mref), errors.As(err, &merr):
		return
	}
	c.logger.Error().Err(err).Msg("mutation rejected")
	c.notes.Failure(notify.EntityNone, "", fmt.Sprintf("Could not apply the change: %v.", err))
}

// Exec runs an op to completion on the calling goroutine
func (c *Coordinator) Exec(ctx context.Context, op *Op) error {
	return c.Settle(op.Do(ctx))
}

// begin starts an op. The caller sets undo before its optimistic write.
func (c *Coordinator) begin(entity notify.Entity, action notify.Action, boardID string) *Op {
	c.logger.Debug().
		Str("entity", string(entity)).
		Str("action", string(action)).
		Str("board_id", boardID).
		Msg("mutation started")
	return &Op{
		Entity:  entity,
		Action:  action,
		BoardID: boardID,
		svc:     c.svc,
	}
}

// fail reports a local write that could not be applied. Whatever part of
// the write did land is undone first.
func (c *Coordinator) fail(op *Op, err error) error {
	if op.undo != nil {
		op.undo(c.st)
	}
	c.logger.Error().
		Err(err).
		Str("entity", string(op.Entity)).
		Str("action", string(op.Action)).
		Str("board_id", op.BoardID).
		Msg("optimistic write failed")
	c.notes.Failure(op.Entity, op.Action, op.failure)
	return &MutationError{Entity: op.Entity, Action: op.Action, Err: err}
}

// missing reports a missing reference and publishes it like a remote failure
func (c *Coordinator) missing(entity notify.Entity, action notify.Action, msg string) error {
	c.logger.Warn().
		Str("entity", string(entity)).
		Str("action", string(action)).
		Msg(msg)
	c.notes.Failure(entity, action, msg)
	return &MissingReferenceError{Entity: entity, Action: action, Message: msg}
}

// unresolved reports a missing reference with a reason that does not say
// what was attempted, e.g. "Failed to toggle subtask: task not found."
func (c *Coordinator) unresolved(entity notify.Entity, action notify.Action, reason string) error {
	return c.missing(entity, action, fmt.Sprintf("Failed to %s %s: %s.", action, entity, reason))
}

// board resolves a board id. empty is the message for an empty id; "" picks
// the generic one.
func (c *Coordinator) board(entity notify.Entity, action notify.Action, boardID, empty string) (model.Board, error) {
	if boardID == "" {
		if empty == "" {
			return model.Board{}, c.unresolved(entity, action, "board ID is missing")
		}
		return model.Board{}, c.missing(entity, action, empty)
	}
	if model.IsPendingID(boardID) {
		return model.Board{}, c.unresolved(entity, action, "board is not saved yet")
	}
	b, ok := c.st.Board(boardID)
	if !ok {
		return model.Board{}, c.unresolved(entity, action, "board not found")
	}
	return b, nil
}

func (c *Coordinator) column(entity notify.Entity, action notify.Action, b model.Board, columnID, empty string) (model.Column, error) {
	if columnID == "" {
		if empty == "" {
			return model.Column{}, c.unresolved(entity, action, "column ID is missing")
		}
		return model.Column{}, c.missing(entity, action, empty)
	}
	if model.IsPendingID(columnID) {
		return model.Column{}, c.unresolved(entity, action, "column is not saved yet")
	}
	i := b.Column(columnID)
	if i < 0 {
		return model.Column{}, c.unresolved(entity, action, "column not found")
	}
	return b.Columns[i], nil
}

func (c *Coordinator) task(entity notify.Entity, action notify.Action, col model.Column, taskID, empty string) (model.Task, error) {
	if taskID == "" {
		return model.Task{}, c.missing(entity, action, empty)
	}
	if model.IsPendingID(taskID) {
		return model.Task{}, c.unresolved(entity, action, "task is not saved yet")
	}
	i := col.Task(taskID)
	if i < 0 {
		return model.Task{}, c.unresolved(entity, action, "task not found")
	}
	return col.Tasks[i], nil
}
