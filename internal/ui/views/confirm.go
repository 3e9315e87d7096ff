package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/ui/theme"
)

// Confirm asks the two-choice delete question. Only "y" produces the
// delete operation.
type Confirm struct {
	pending *optimistic.PendingDelete
}

func NewConfirm(p *optimistic.PendingDelete) Confirm {
	return Confirm{pending: p}
}

// Update reports done once the prompt was answered either way
func (c Confirm) Update(msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return true, RunOp(c.pending.Proceed())
	case "n", "N", "esc":
		c.pending.Cancel()
		return true, nil
	}
	return false, nil
}

func (c Confirm) View() string {
	t := theme.Current.Theme
	prompt := lipgloss.NewStyle().Foreground(t.Error).Bold(true).Render(c.pending.Prompt())
	return prompt + " " + theme.Current.Styles.HelpDesc.Render("(y/n)")
}
