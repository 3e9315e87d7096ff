package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/reorder"
	"github.com/dori/plando/internal/store"
	"github.com/dori/plando/internal/ui/dnd"
	"github.com/dori/plando/internal/ui/theme"
)

// BoardMode represents the current input mode of the board view
type BoardMode int

const (
	BoardModeNormal BoardMode = iota
	BoardModeAddTask
	BoardModeRename
	BoardModeFilter
	BoardModeConfirm
)

const (
	minColumnWidth = 26
	// rows above the first task: title bar, column border, column header
	taskTop   = 3
	headerRow = 2
	// the delete control occupies the last content cell of a card
	controlGlyph = "×"
)

// BoardView shows the active board's columns side by side
type BoardView struct {
	c      *optimistic.Coordinator
	drag   reorder.Handler
	width  int
	height int
	now    func() time.Time

	// col is the focused column; row is the focused task, -1 for the header
	col int
	row int

	mode       BoardMode
	form       Form
	formColumn string
	filter     textinput.Model
	query      string
	confirm    Confirm

	gesture dnd.Gesture
	// pressed is the control under a mouse press, acted on at release
	pressed dnd.Target
}

// NewBoardView creates a new board view
func NewBoardView(c *optimistic.Coordinator) BoardView {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 128
	ti.Placeholder = "Filter tasks..."

	return BoardView{
		c:      c,
		drag:   reorder.Handler{Coordinator: c},
		now:    time.Now,
		filter: ti,
	}
}

// SetSize sets the view dimensions
func (v BoardView) SetSize(width, height int) BoardView {
	v.width = width
	v.height = height
	return v
}

// IsInputMode returns whether the view is capturing text or a y/n answer
func (v BoardView) IsInputMode() bool {
	return v.mode != BoardModeNormal
}

// Dragging reports whether an item is picked up
func (v BoardView) Dragging() bool {
	return v.gesture.Active()
}

// Reset drops transient state when another board becomes active
func (v BoardView) Reset() BoardView {
	v.col, v.row = 0, 0
	v.mode = BoardModeNormal
	v.gesture.Cancel()
	v.pressed = dnd.Target{}
	return v
}

func (v BoardView) board() (model.Board, bool) {
	return store.ActiveBoard(v.c.Store())
}

// visibleTasks applies the filter to a column's tasks
func (v BoardView) visibleTasks(c model.Column) []model.Task {
	if v.query == "" {
		return c.Tasks
	}
	q := strings.ToLower(v.query)
	var out []model.Task
	for _, t := range c.Tasks {
		if strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// clamp keeps the focus inside the board
func (v BoardView) clamp() BoardView {
	b, ok := v.board()
	if !ok || len(b.Columns) == 0 {
		v.col, v.row = 0, -1
		return v
	}
	v.col = min(max(v.col, 0), len(b.Columns)-1)
	n := len(v.visibleTasks(b.Columns[v.col]))
	v.row = min(max(v.row, -1), n-1)
	return v
}

func (v BoardView) focusedColumn() (model.Board, model.Column, bool) {
	b, ok := v.board()
	if !ok || v.col < 0 || v.col >= len(b.Columns) {
		return b, model.Column{}, false
	}
	return b, b.Columns[v.col], true
}

func (v BoardView) focusedTask() (model.Board, model.Column, model.Task, bool) {
	b, c, ok := v.focusedColumn()
	if !ok {
		return b, c, model.Task{}, false
	}
	tasks := v.visibleTasks(c)
	if v.row < 0 || v.row >= len(tasks) {
		return b, c, model.Task{}, false
	}
	return b, c, tasks[v.row], true
}

// focusedTarget is the drag target under the keyboard cursor
func (v BoardView) focusedTarget() dnd.Target {
	b, c, ok := v.focusedColumn()
	if !ok {
		return dnd.Target{}
	}
	if v.row < 0 {
		return dnd.Target{Kind: dnd.KindColumn, Container: b.ID, ID: c.ID}
	}
	if _, _, t, ok := v.focusedTask(); ok {
		return dnd.Target{Kind: dnd.KindTask, Container: c.ID, ID: t.ID}
	}
	return dnd.Target{}
}

// Update handles messages
func (v BoardView) Update(msg tea.Msg) (BoardView, tea.Cmd) {
	v = v.clamp()

	switch msg := msg.(type) {
	case tea.MouseMsg:
		if v.mode != BoardModeNormal {
			return v, nil
		}
		return v.handleMouse(msg)

	case tea.KeyMsg:
		switch v.mode {
		case BoardModeAddTask, BoardModeRename:
			return v.handleForm(msg)
		case BoardModeFilter:
			return v.handleFilter(msg)
		case BoardModeConfirm:
			if done, cmd := v.confirm.Update(msg); done {
				v.mode = BoardModeNormal
				return v.clamp(), cmd
			}
			return v, nil
		}
		if v.gesture.Active() {
			return v.handleDragKeys(msg)
		}
		return v.handleNormalMode(msg)
	}

	if v.mode == BoardModeAddTask || v.mode == BoardModeRename {
		var cmd tea.Cmd
		v.form, _, cmd = v.form.Update(msg)
		return v, cmd
	}
	if v.mode == BoardModeFilter {
		var cmd tea.Cmd
		v.filter, cmd = v.filter.Update(msg)
		return v, cmd
	}
	return v, nil
}

// handleNormalMode handles keys in normal mode
func (v BoardView) handleNormalMode(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	b, hasBoard := v.board()

	switch msg.String() {
	case "h", "left":
		v.col--
		return v.clamp(), nil
	case "l", "right":
		v.col++
		return v.clamp(), nil
	case "j", "down":
		v.row++
		return v.clamp(), nil
	case "k", "up":
		v.row--
		return v.clamp(), nil
	case "g":
		v.row = -1
		return v, nil
	case "G":
		if _, c, ok := v.focusedColumn(); ok {
			v.row = len(v.visibleTasks(c)) - 1
		}
		return v.clamp(), nil

	case " ":
		v.gesture.Begin(v.focusedTarget())
		return v, nil

	case "H":
		return v.moveTask(-1)
	case "L":
		return v.moveTask(1)

	case "enter":
		if b, c, t, ok := v.focusedTask(); ok && !t.Pending {
			return v, func() tea.Msg {
				return OpenTaskMsg{BoardID: b.ID, ColumnID: c.ID, TaskID: t.ID}
			}
		}
		return v, nil

	case "a":
		if !hasBoard {
			return v, nil
		}
		_, c, _ := v.focusedColumn()
		v.mode = BoardModeAddTask
		v.formColumn = c.ID
		title := "Add task"
		if c.Title != "" {
			title = fmt.Sprintf("Add task to %s", c.Title)
		}
		v.form = NewForm(title,
			[3]string{"title", "Title", ""},
			[3]string{"description", "Description", ""},
			[3]string{"subtasks", "Subtasks (comma separated)", ""},
		)
		return v, textinput.Blink

	case "c":
		if _, c, ok := v.focusedColumn(); ok {
			v.mode = BoardModeRename
			v.formColumn = c.ID
			v.form = NewForm("Rename column", [3]string{"title", "Name", c.Title})
			return v, textinput.Blink
		}
		return v, nil

	case "D":
		if _, c, ok := v.focusedColumn(); ok {
			return v.prepareDelete(optimistic.DeleteTarget{Entity: notify.EntityColumn, BoardID: b.ID, ColumnID: c.ID})
		}
		return v, nil

	case "d":
		if _, c, t, ok := v.focusedTask(); ok {
			return v.prepareDelete(optimistic.DeleteTarget{Entity: notify.EntityTask, BoardID: b.ID, ColumnID: c.ID, TaskID: t.ID})
		}
		return v, nil

	case "p":
		if _, c, t, ok := v.focusedTask(); ok {
			next := t.Priority.Next()
			return v, v.edit(b.ID, c.ID, t.ID, remote.TaskPatch{Priority: &next})
		}
		return v, nil

	case "s":
		if _, c, t, ok := v.focusedTask(); ok {
			next := t.Status.Next()
			return v, v.edit(b.ID, c.ID, t.ID, remote.TaskPatch{Status: &next})
		}
		return v, nil

	case "/":
		v.mode = BoardModeFilter
		v.filter.SetValue(v.query)
		v.filter.Focus()
		return v, textinput.Blink

	case "esc":
		v.query = ""
		return v.clamp(), nil

	case "r":
		if hasBoard {
			return v, LoadBoard(v.c, b.ID)
		}
	}

	return v, nil
}

// handleDragKeys moves the keyboard drag along the source's axis
func (v BoardView) handleDragKeys(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	src := v.gesture.Source()

	switch msg.String() {
	case "esc":
		v.gesture.Cancel()
		return v, nil
	case " ", "enter":
		drop, ok := v.gesture.Drop(v.focusedTarget())
		if !ok {
			return v, nil
		}
		return v.applyDrop(drop)
	case "h", "left":
		if src.Kind == dnd.KindColumn {
			v.col--
		}
	case "l", "right":
		if src.Kind == dnd.KindColumn {
			v.col++
		}
	case "j", "down":
		if src.Kind == dnd.KindTask {
			v.row++
		}
	case "k", "up":
		if src.Kind == dnd.KindTask && v.row > 0 {
			v.row--
		}
	}

	v = v.clamp()
	v.gesture.Over(v.focusedTarget())
	return v, nil
}

// applyDrop turns a finished gesture into a reorder and moves the focus
// with the dropped item
func (v BoardView) applyDrop(d dnd.Drop) (BoardView, tea.Cmd) {
	b, ok := v.board()
	if !ok {
		return v, nil
	}

	var op *optimistic.Op
	var err error
	switch d.Kind {
	case dnd.KindColumn:
		op, err = v.drag.Columns(d.Container, d.MovedID, d.TargetID)
	case dnd.KindTask:
		op, err = v.drag.Tasks(b.ID, d.Container, d.MovedID, d.TargetID)
	}
	cmd, _ := mutation(v.c, op, err)
	if cmd == nil {
		return v, nil
	}

	b, _ = v.board()
	for i, c := range b.Columns {
		if d.Kind == dnd.KindColumn && c.ID == d.MovedID {
			v.col, v.row = i, -1
		}
		if d.Kind == dnd.KindTask && c.ID == d.Container {
			for j, t := range v.visibleTasks(c) {
				if t.ID == d.MovedID {
					v.col, v.row = i, j
				}
			}
		}
	}
	return v, cmd
}

func (v BoardView) moveTask(direction int) (BoardView, tea.Cmd) {
	b, c, t, ok := v.focusedTask()
	if !ok {
		return v, nil
	}
	to := v.col + direction
	if to < 0 || to >= len(b.Columns) {
		return v, nil
	}

	op, err := v.c.MoveTask(b.ID, c.ID, b.Columns[to].ID, t.ID)
	cmd, _ := mutation(v.c, op, err)
	if cmd == nil {
		return v, nil
	}
	v.col = to
	v.row = len(v.visibleTasks(b.Columns[to]))
	return v.clamp(), cmd
}

func (v BoardView) edit(boardID, columnID, taskID string, p remote.TaskPatch) tea.Cmd {
	op, err := v.c.EditTask(boardID, columnID, taskID, p)
	cmd, _ := mutation(v.c, op, err)
	return cmd
}

func (v BoardView) prepareDelete(target optimistic.DeleteTarget) (BoardView, tea.Cmd) {
	pending, err := v.c.PrepareDelete(target)
	if err != nil {
		v.c.Reject(err)
		return v, nil
	}
	v.confirm = NewConfirm(pending)
	v.mode = BoardModeConfirm
	return v, nil
}

func (v BoardView) handleForm(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	form, action, cmd := v.form.Update(msg)
	v.form = form

	switch action {
	case FormCancel:
		v.mode = BoardModeNormal
		return v, nil
	case FormSubmit:
		b, _ := v.board()
		var run tea.Cmd
		var verr *optimistic.ValidationError

		if v.mode == BoardModeAddTask {
			draft := optimistic.TaskDraft{
				ColumnID:    v.formColumn,
				Title:       v.form.Value("title"),
				Description: v.form.Value("description"),
				SubTasks:    splitTitles(v.form.Value("subtasks")),
			}
			if err := draft.Validate(); err != nil {
				run, verr = mutation(v.c, nil, err)
			} else {
				op, err := v.c.AddTask(b.ID, draft)
				run, verr = mutation(v.c, op, err)
			}
		} else {
			op, err := v.c.RenameColumn(b.ID, v.formColumn, v.form.Value("title"))
			run, verr = mutation(v.c, op, err)
		}

		if verr != nil {
			v.form = v.form.SetError(verr.Field, verr.Message)
			return v, nil
		}
		v.mode = BoardModeNormal
		return v.clamp(), run
	}
	return v, cmd
}

// handleFilter handles keys in filter mode
func (v BoardView) handleFilter(msg tea.KeyMsg) (BoardView, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		v.query = strings.TrimSpace(v.filter.Value())
		v.mode = BoardModeNormal
		v.filter.Blur()
		v.row = 0
		return v.clamp(), nil
	}

	var cmd tea.Cmd
	v.filter, cmd = v.filter.Update(msg)
	return v, cmd
}

// layout describes which columns are on screen and how wide they are
type layout struct {
	first, count int
	width        int // content+padding width of one column, without border
	rows         int // task rows per column
}

func (l layout) outer() int {
	return l.width + 2
}

func (v BoardView) layout(b model.Board) layout {
	n := max(len(b.Columns), 1)
	l := layout{width: max(v.width/n-2, minColumnWidth)}
	l.count = min(max(v.width/l.outer(), 1), n)
	if v.col >= l.count {
		l.first = v.col - l.count + 1
	}
	l.rows = max(v.height-taskTop-1-lipgloss.Height(v.footer(l)), 1)
	return l
}

// offset is the first task row shown for a column
func (v BoardView) offset(l layout, colIdx int) int {
	if colIdx != v.col || v.row < l.rows {
		return 0
	}
	return v.row - l.rows + 1
}

// HitTest returns the item at a position relative to the view's top-left
func (v BoardView) HitTest(x, y int) dnd.Target {
	b, ok := v.board()
	if !ok || len(b.Columns) == 0 || x < 0 || y < headerRow {
		return dnd.Target{}
	}
	l := v.layout(b)
	idx := l.first + x/l.outer()
	if idx >= l.first+l.count || idx >= len(b.Columns) {
		return dnd.Target{}
	}
	col := b.Columns[idx]
	ix := x % l.outer()
	control := ix >= l.width-1 && ix <= l.width

	if y == headerRow {
		return dnd.Target{Kind: dnd.KindColumn, Container: b.ID, ID: col.ID, Control: control}
	}
	tasks := v.visibleTasks(col)
	i := v.offset(l, idx) + y - taskTop
	if y-taskTop >= l.rows || i < 0 || i >= len(tasks) {
		return dnd.Target{}
	}
	return dnd.Target{Kind: dnd.KindTask, Container: col.ID, ID: tasks[i].ID, Control: control}
}

// focusOn moves the keyboard focus to a hit target
func (v BoardView) focusOn(t dnd.Target) BoardView {
	b, ok := v.board()
	if !ok {
		return v
	}
	for i, c := range b.Columns {
		switch {
		case t.Kind == dnd.KindColumn && c.ID == t.ID:
			v.col, v.row = i, -1
		case t.Kind == dnd.KindTask && c.ID == t.Container:
			for j, task := range v.visibleTasks(c) {
				if task.ID == t.ID {
					v.col, v.row = i, j
				}
			}
		}
	}
	return v
}

// handleMouse drags with the left button. A press on a control never starts
// a drag; releasing on the same control asks to delete its item.
func (v BoardView) handleMouse(msg tea.MouseMsg) (BoardView, tea.Cmd) {
	if msg.Action == tea.MouseActionPress && msg.Button != tea.MouseButtonLeft {
		return v, nil
	}
	target := v.HitTest(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		v = v.focusOn(target)
		if target.Actionable() {
			v.pressed = target
			return v, nil
		}
		v.gesture.Begin(target)

	case tea.MouseActionMotion:
		v.gesture.Over(target)

	case tea.MouseActionRelease:
		pressed := v.pressed
		v.pressed = dnd.Target{}
		if v.gesture.Active() {
			if drop, ok := v.gesture.Drop(target); ok {
				return v.applyDrop(drop)
			}
			return v, nil
		}
		if pressed.Actionable() && pressed == target {
			return v.deleteControl(target)
		}
	}
	return v, nil
}

func (v BoardView) deleteControl(t dnd.Target) (BoardView, tea.Cmd) {
	b, ok := v.board()
	if !ok {
		return v, nil
	}
	if t.Kind == dnd.KindColumn {
		return v.prepareDelete(optimistic.DeleteTarget{Entity: notify.EntityColumn, BoardID: b.ID, ColumnID: t.ID})
	}
	return v.prepareDelete(optimistic.DeleteTarget{Entity: notify.EntityTask, BoardID: b.ID, ColumnID: t.Container, TaskID: t.ID})
}

// View renders the board
func (v BoardView) View(focused bool) string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	styles := theme.Current.Styles
	v = v.clamp()

	b, ok := v.board()
	if !ok {
		return styles.Placeholder.Render("No board selected. Pick one from the sidebar (tab, enter) or add one (a).")
	}

	title := styles.Header.Render(b.Title)
	if b.Pending {
		title += styles.TaskPending.Render("saving…")
	}
	if v.query != "" {
		title += styles.DueDate.Render(fmt.Sprintf("[filter: %s]", v.query))
	}
	if v.gesture.Active() {
		title += styles.TaskDragged.Render("moving " + v.gesture.Source().Kind.String())
	}

	l := v.layout(b)
	if len(b.Columns) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, styles.Placeholder.Render("This board has no columns. Edit it from the sidebar (e)."), v.footer(l))
	}

	var cols []string
	for i := l.first; i < l.first+l.count && i < len(b.Columns); i++ {
		cols = append(cols, v.renderColumn(b, i, l, focused))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		v.footer(l),
	)
}

func (v BoardView) renderColumn(b model.Board, idx int, l layout, focused bool) string {
	styles := theme.Current.Styles
	col := b.Columns[idx]
	content := l.width - 2
	src, hover := v.gesture.Source(), v.gesture.Hover()

	headerText := truncate(fmt.Sprintf("%s (%d)", col.Title, len(col.Tasks)), content-2)
	header := styles.ColumnTitle.Render(padRight(headerText, content-2) + " " + controlGlyph)
	switch {
	case v.gesture.Active() && src.Kind == dnd.KindColumn && src.ID == col.ID:
		header = styles.TaskDragged.UnsetPadding().Render(padRight(headerText, content))
	case v.gesture.Active() && hover.Kind == dnd.KindColumn && hover.ID == col.ID:
		header = styles.DropTarget.UnsetPadding().Render(padRight(headerText, content))
	case focused && idx == v.col && v.row < 0:
		header = styles.TaskFocused.UnsetPadding().Render(padRight(headerText, content-2) + " " + controlGlyph)
	}

	lines := []string{header}
	tasks := v.visibleTasks(col)
	switch {
	case !col.TasksLoaded:
		lines = append(lines, styles.Placeholder.Render("loading…"))
	case len(tasks) == 0:
		lines = append(lines, styles.Placeholder.Italic(true).Render("(empty)"))
	}

	start := v.offset(l, idx)
	for j := start; j < len(tasks) && j < start+l.rows; j++ {
		lines = append(lines, v.renderCard(tasks[j], j, idx, content, focused))
	}

	box := styles.Column
	if focused && idx == v.col {
		box = styles.ColumnFocused
	}
	return box.Width(l.width).Height(l.rows + 1).Render(strings.Join(lines, "\n"))
}

func (v BoardView) renderCard(t model.Task, row, colIdx, width int, focused bool) string {
	th := theme.Current.Theme
	styles := theme.Current.Styles
	now := v.now()

	var prio string
	switch t.Priority {
	case model.PriorityHigh:
		prio = "▲"
	case model.PriorityMedium:
		prio = "●"
	default:
		prio = "▽"
	}

	var suffix string
	if done, total := t.SubTaskProgress(); total > 0 {
		suffix += fmt.Sprintf(" (%d/%d)", done, total)
	}
	if t.Deadline != nil {
		suffix += " " + t.Deadline.Format("Jan 2")
	}

	titleWidth := width - 4 - lipgloss.Width(suffix)
	text := prio + " " + padRight(truncate(t.Title, titleWidth), titleWidth) + suffix + " " + controlGlyph

	var style lipgloss.Style
	switch {
	case t.Pending:
		style = styles.TaskPending
	case t.Status == model.StatusDone:
		style = styles.TaskDone
	case t.IsOverdue(now):
		style = styles.TaskOverdue
	default:
		style = styles.TaskNormal.Foreground(th.StatusColor(t.Status))
	}

	src, hover := v.gesture.Source(), v.gesture.Hover()
	switch {
	case v.gesture.Active() && src.Kind == dnd.KindTask && src.ID == t.ID:
		style = styles.TaskDragged
	case v.gesture.Active() && hover.Kind == dnd.KindTask && hover.ID == t.ID:
		style = styles.DropTarget
	case focused && colIdx == v.col && row == v.row:
		style = styles.TaskFocused
	}
	return style.UnsetPadding().Render(text)
}

func (v BoardView) footer(l layout) string {
	styles := theme.Current.Styles
	switch v.mode {
	case BoardModeAddTask, BoardModeRename:
		return v.form.View(v.width)
	case BoardModeFilter:
		return styles.InputFocused.Width(max(v.width-4, 20)).Render("Filter: " + v.filter.View())
	case BoardModeConfirm:
		return v.confirm.View()
	}

	b, _ := v.board()
	if n := len(b.Columns); l.count > 0 && l.count < n {
		return styles.HelpDesc.Render(fmt.Sprintf("columns %d-%d of %d", l.first+1, l.first+l.count, n))
	}
	return ""
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
