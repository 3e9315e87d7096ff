package views

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/plando/internal/optimistic"
)

// OpDoneMsg carries a finished remote call back to the loop for settling
type OpDoneMsg struct {
	Outcome optimistic.Outcome
}

// LoadedMsg carries fetched data back to the loop
type LoadedMsg struct {
	Result optimistic.LoadResult
}

// SelectBoardMsg makes a board active
type SelectBoardMsg struct {
	ID string
}

// OpenTaskMsg shows the task detail view
type OpenTaskMsg struct {
	BoardID  string
	ColumnID string
	TaskID   string
}

// CloseTaskMsg returns from the task detail view
type CloseTaskMsg struct{}

// RunOp performs the remote half of an optimistic mutation off the loop
func RunOp(op *optimistic.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	return func() tea.Msg {
		return OpDoneMsg{Outcome: op.Do(context.Background())}
	}
}

// LoadBoards fetches the board list off the loop
func LoadBoards(c *optimistic.Coordinator) tea.Cmd {
	return func() tea.Msg {
		return LoadedMsg{Result: c.LoadBoards(context.Background())}
	}
}

// LoadBoard fetches one board with its columns and tasks off the loop
func LoadBoard(c *optimistic.Coordinator, boardID string) tea.Cmd {
	return func() tea.Msg {
		return LoadedMsg{Result: c.LoadBoard(context.Background(), boardID)}
	}
}

// mutation turns the synchronous half of a mutation into a command.
// Validation errors are handed back for inline display; every other error
// goes to the coordinator, which notifies what was not notified yet.
func mutation(c *optimistic.Coordinator, op *optimistic.Op, err error) (tea.Cmd, *optimistic.ValidationError) {
	if err != nil {
		var verr *optimistic.ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		c.Reject(err)
		return nil, nil
	}
	return RunOp(op), nil
}
