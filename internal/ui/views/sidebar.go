package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/store"
	"github.com/dori/plando/internal/ui/theme"
)

type sidebarMode int

const (
	sidebarNormal sidebarMode = iota
	sidebarAdd
	sidebarEdit
	sidebarConfirm
)

// Sidebar lists the boards and runs the board add/edit/delete forms
type Sidebar struct {
	c      *optimistic.Coordinator
	width  int
	height int

	cursor  int
	mode    sidebarMode
	form    Form
	editID  string
	confirm Confirm
}

func NewSidebar(c *optimistic.Coordinator) Sidebar {
	return Sidebar{c: c}
}

func (v Sidebar) SetSize(width, height int) Sidebar {
	v.width = width
	v.height = height
	return v
}

// IsInputMode returns whether the sidebar is capturing text or a y/n answer
func (v Sidebar) IsInputMode() bool {
	return v.mode != sidebarNormal
}

func (v Sidebar) refs() []store.BoardRef {
	return store.BoardRefs(v.c.Store())
}

func (v Sidebar) clamp() Sidebar {
	n := len(v.refs())
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	return v
}

// Update handles key input while the sidebar has focus
func (v Sidebar) Update(msg tea.Msg) (Sidebar, tea.Cmd) {
	v = v.clamp()

	switch v.mode {
	case sidebarAdd, sidebarEdit:
		return v.updateForm(msg)
	case sidebarConfirm:
		if key, ok := msg.(tea.KeyMsg); ok {
			if done, cmd := v.confirm.Update(key); done {
				v.mode = sidebarNormal
				return v, cmd
			}
		}
		return v, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	refs := v.refs()

	switch key.String() {
	case "j", "down":
		if v.cursor < len(refs)-1 {
			v.cursor++
		}
	case "k", "up":
		if v.cursor > 0 {
			v.cursor--
		}
	case "enter":
		if len(refs) > 0 {
			id := refs[v.cursor].ID
			return v, func() tea.Msg { return SelectBoardMsg{ID: id} }
		}
	case "r":
		return v, LoadBoards(v.c)
	case "a":
		v.mode = sidebarAdd
		v.form = NewForm("Add board",
			[3]string{"title", "Name", ""},
			[3]string{"columns", "Columns (comma separated)", "Todo, Doing, Done"},
		)
	case "e":
		if len(refs) == 0 {
			return v, nil
		}
		b, ok := v.c.Store().Board(refs[v.cursor].ID)
		if !ok {
			return v, nil
		}
		titles := make([]string, len(b.Columns))
		for i, c := range b.Columns {
			titles[i] = c.Title
		}
		v.mode = sidebarEdit
		v.editID = b.ID
		v.form = NewForm("Edit board",
			[3]string{"title", "Name", b.Title},
			[3]string{"columns", "Columns (comma separated)", strings.Join(titles, ", ")},
		)
	case "d":
		if len(refs) == 0 {
			return v, nil
		}
		pending, err := v.c.PrepareDelete(optimistic.DeleteTarget{
			Entity:  notify.EntityBoard,
			BoardID: refs[v.cursor].ID,
		})
		if err != nil {
			v.c.Reject(err)
			return v, nil
		}
		v.confirm = NewConfirm(pending)
		v.mode = sidebarConfirm
	}
	return v, nil
}

func (v Sidebar) updateForm(msg tea.Msg) (Sidebar, tea.Cmd) {
	form, action, cmd := v.form.Update(msg)
	v.form = form

	switch action {
	case FormCancel:
		v.mode = sidebarNormal
		return v, nil
	case FormSubmit:
		title := v.form.Value("title")
		columns := splitTitles(v.form.Value("columns"))

		var op *optimistic.Op
		var err error
		if v.mode == sidebarAdd {
			op, err = v.c.AddBoard(optimistic.NewBoardDraft(title, columns...))
		} else {
			b, _ := v.c.Store().Board(v.editID)
			op, err = v.c.EditBoard(v.editID, EditDraft(b, title, columns))
		}
		run, verr := mutation(v.c, op, err)
		if verr != nil {
			v.form = v.form.SetError(verr.Field, verr.Message)
			return v, nil
		}
		v.mode = sidebarNormal
		return v, run
	}
	return v, cmd
}

// splitTitles splits a comma separated list. Empty entries are kept so that
// validation can reject them.
func splitTitles(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// EditDraft maps edited column titles onto the board's columns. A title
// equal to an existing column keeps that column; the remaining titles
// rename the remaining columns in order; anything left over is new.
func EditDraft(b model.Board, title string, titles []string) optimistic.BoardDraft {
	d := optimistic.BoardDraft{Title: title, Columns: make([]optimistic.ColumnDraft, len(titles))}
	used := make(map[string]bool)

	for i, t := range titles {
		d.Columns[i].Title = t
		for _, c := range b.Columns {
			if !used[c.ID] && c.Title == t {
				d.Columns[i].ID = c.ID
				used[c.ID] = true
				break
			}
		}
	}

	var spare []string
	for _, c := range b.Columns {
		if !used[c.ID] {
			spare = append(spare, c.ID)
		}
	}
	for i := range d.Columns {
		if d.Columns[i].ID == "" && len(spare) > 0 {
			d.Columns[i].ID = spare[0]
			spare = spare[1:]
		}
	}
	return d
}

// Click selects the board on a sidebar row, relative to the sidebar's top
func (v Sidebar) Click(y int) (Sidebar, tea.Cmd) {
	refs := v.refs()
	i := y - 3
	if v.mode != sidebarNormal || i < 0 || i >= len(refs) {
		return v, nil
	}
	v.cursor = i
	id := refs[i].ID
	return v, func() tea.Msg { return SelectBoardMsg{ID: id} }
}

func (v Sidebar) View(focused bool) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	v = v.clamp()

	var lines []string
	lines = append(lines, styles.ColumnTitle.Render("Boards"), "")

	refs := v.refs()
	if len(refs) == 0 {
		lines = append(lines, styles.Placeholder.Render("(no boards)"))
	}
	for i, r := range refs {
		style := styles.SidebarItem
		if r.Active {
			style = styles.SidebarActive
		}
		if focused && i == v.cursor {
			style = style.Background(t.Highlight)
		}
		title := truncate(r.Title, v.width-6)
		if r.Pending {
			title += " …"
		}
		lines = append(lines, style.Width(v.width-2).Render(title))
	}

	switch v.mode {
	case sidebarAdd, sidebarEdit:
		lines = append(lines, "", v.form.View(v.width))
	case sidebarConfirm:
		lines = append(lines, "", lipgloss.NewStyle().Width(v.width-2).Render(v.confirm.View()))
	default:
		lines = append(lines, "", styles.HelpDesc.Render(fmt.Sprintf("%d boards", len(refs))))
	}

	box := styles.Column
	if focused {
		box = styles.ColumnFocused
	}
	return box.Width(v.width - 2).Height(max(v.height-2, 1)).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
