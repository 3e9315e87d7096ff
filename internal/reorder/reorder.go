// Package reorder turns a drag and drop into a new column or task order.
package reorder

import (
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/store"
)

// Move relocates movedID to the position of targetID. Moving backward puts
// it before the target, moving forward after it; every other id keeps its
// relative order. It reports false, and returns seq unchanged, when either
// id is absent or both are at the same index.
func Move(seq []string, movedID, targetID string) ([]string, bool) {
	from, to := index(seq, movedID), index(seq, targetID)
	if from < 0 || to < 0 || from == to {
		return seq, false
	}

	out := make([]string, 0, len(seq))
	out = append(out, seq[:from]...)
	out = append(out, seq[from+1:]...)

	// with the moved id taken out, the target sits at to-1 when moving
	// forward, so inserting at to lands after it; moving backward it sits
	// at to and the moved id lands before it
	out = append(out[:to], append([]string{movedID}, out[to:]...)...)
	return out, true
}

func index(seq []string, id string) int {
	for i, s := range seq {
		if s == id {
			return i
		}
	}
	return -1
}

// Handler feeds drag results to the coordinator
type Handler struct {
	Coordinator *optimistic.Coordinator
}

// Columns moves one column of a board. A drop that changes nothing returns
// optimistic.ErrNoChange.
func (h Handler) Columns(boardID, movedID, targetID string) (*optimistic.Op, error) {
	b, ok := h.Coordinator.Store().Board(boardID)
	if !ok {
		return nil, optimistic.ErrNoChange
	}
	next, ok := Move(b.ColumnIDs(), movedID, targetID)
	if !ok {
		return nil, optimistic.ErrNoChange
	}
	return h.Coordinator.ReorderColumns(boardID, next)
}

// Tasks moves one task within its column. A drop that changes nothing
// returns optimistic.ErrNoChange.
func (h Handler) Tasks(boardID, columnID, movedID, targetID string) (*optimistic.Op, error) {
	tasks := store.ColumnTasks(h.Coordinator.Store(), boardID, columnID)
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	next, ok := Move(ids, movedID, targetID)
	if !ok {
		return nil, optimistic.ErrNoChange
	}
	return h.Coordinator.ReorderTasks(boardID, columnID, next)
}
