package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/plando/internal/app"
	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/notify"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/ui/theme"
	"github.com/dori/plando/internal/ui/views"
)

const (
	sidebarWidth = 28
	maxToasts    = 3
	// header line above the panes
	headerHeight = 1
	footerHeight = 2
)

type toast struct {
	note    notify.Notification
	expires time.Time
}

// Options are start-up choices from the command line
type Options struct {
	Theme string
	Board string
}

// RootModel is the main application model that lays out the panes and
// settles every finished remote call on the event loop
type RootModel struct {
	app  *app.App
	c    *optimistic.Coordinator
	keys KeyMap
	help help.Model
	now  func() time.Time

	width  int
	height int

	pane        Pane
	sidebar     views.Sidebar
	board       views.BoardView
	detail      views.TaskDetail
	helpVisible bool

	startBoard  string
	savedActive string

	toasts []toast
	ttl    time.Duration
}

// NewRootModel creates a new root model
func NewRootModel(a *app.App, opts Options) RootModel {
	h := help.New()
	h.ShowAll = false

	name := opts.Theme
	if name == "" {
		name = a.Theme()
	}
	if t, ok := theme.ByName(name); ok {
		theme.SetTheme(t)
	}

	start := opts.Board
	if start == "" {
		start = a.SavedActiveBoard()
	}

	return RootModel{
		app:        a,
		c:          a.Coordinator,
		keys:       DefaultKeyMap(),
		help:       h,
		now:        time.Now,
		pane:       PaneBoards,
		sidebar:    views.NewSidebar(a.Coordinator),
		board:      views.NewBoardView(a.Coordinator),
		startBoard: start,
		ttl:        a.Config.UI.NotificationTTL,
	}
}

// Init loads the board list and reopens the last board
func (m RootModel) Init() tea.Cmd {
	if !m.app.Session.LoggedIn() {
		m.app.Notifier.Info("Not logged in. Run `plando login` first.")
		return nil
	}

	cmds := []tea.Cmd{views.LoadBoards(m.c)}
	if id := m.startBoard; id != "" {
		cmds = append(cmds, func() tea.Msg { return views.SelectBoardMsg{ID: id} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		contentHeight := m.height - headerHeight - footerHeight
		contentWidth := m.width - sidebarWidth
		m.sidebar = m.sidebar.SetSize(sidebarWidth, contentHeight)
		m.board = m.board.SetSize(contentWidth, contentHeight)
		m.detail = m.detail.SetSize(contentWidth, contentHeight)

	case views.OpDoneMsg:
		if err := m.c.Settle(msg.Outcome); err != nil {
			m.checkUnauthorized(err)
		}
		m.syncActive()

	case views.LoadedMsg:
		if err := m.c.ApplyLoad(msg.Result); err != nil {
			m.checkUnauthorized(err)
		}
		m.syncActive()

	case views.SelectBoardMsg:
		m.app.SelectBoard(msg.ID)
		m.savedActive = msg.ID
		m.board = m.board.Reset()
		m.pane = PaneBoard
		if !model.IsPendingID(msg.ID) {
			cmds = append(cmds, views.LoadBoard(m.c, msg.ID))
		}

	case views.OpenTaskMsg:
		m.detail = views.NewTaskDetail(m.c, msg.BoardID, msg.ColumnID, msg.TaskID).
			SetSize(m.width-sidebarWidth, m.height-headerHeight-footerHeight)
		m.pane = PaneTask

	case views.CloseTaskMsg:
		m.pane = PaneBoard

	case toastExpiredMsg:
		m.pruneToasts(msg.at)

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case tea.KeyMsg:
		inputMode := m.isInputMode()

		switch {
		case msg.String() == "ctrl+c":
			return m, tea.Quit
		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m.flushToasts(nil)
		}

		if !inputMode {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.helpVisible = !m.helpVisible
				return m, nil
			case m.helpVisible && key.Matches(msg, m.keys.Back):
				m.helpVisible = false
				return m, nil
			case key.Matches(msg, m.keys.Pane) && m.pane != PaneTask:
				if m.pane == PaneBoards {
					m.pane = PaneBoard
				} else {
					m.pane = PaneBoards
				}
				return m, nil
			}
		}

		cmds = append(cmds, m.delegate(msg))

	default:
		cmds = append(cmds, m.delegate(msg))
	}

	return m.flushToasts(cmds)
}

func (m *RootModel) delegate(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.pane {
	case PaneBoards:
		m.sidebar, cmd = m.sidebar.Update(msg)
	case PaneBoard:
		m.board, cmd = m.board.Update(msg)
	case PaneTask:
		m.detail, cmd = m.detail.Update(msg)
	}
	return cmd
}

func (m *RootModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.pane == PaneTask || m.isInputMode() {
		return nil
	}
	y := msg.Y - headerHeight

	if msg.X < sidebarWidth && !m.board.Dragging() {
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return nil
		}
		m.pane = PaneBoards
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Click(y)
		return cmd
	}

	m.pane = PaneBoard
	msg.X -= sidebarWidth
	msg.Y = y
	var cmd tea.Cmd
	m.board, cmd = m.board.Update(msg)
	return cmd
}

func (m RootModel) isInputMode() bool {
	switch m.pane {
	case PaneBoards:
		return m.sidebar.IsInputMode()
	case PaneBoard:
		return m.board.IsInputMode() || m.board.Dragging()
	case PaneTask:
		return m.detail.IsInputMode()
	}
	return false
}

// syncActive remembers the active board once a pending board is confirmed
// or the active board disappears
func (m *RootModel) syncActive() {
	id := m.c.Store().ActiveBoardID()
	if id == m.savedActive || model.IsPendingID(id) {
		return
	}
	m.app.SelectBoard(id)
	m.savedActive = id
}

func (m *RootModel) checkUnauthorized(err error) {
	if errors.Is(err, remote.ErrUnauthorized) {
		m.app.Notifier.Info("Session expired. Run `plando login` again.")
	}
}

// flushToasts moves new notifications into the status line and schedules
// their expiry
func (m RootModel) flushToasts(cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	notes := m.app.Notifier.Drain()
	for _, n := range notes {
		m.toasts = append(m.toasts, toast{note: n, expires: n.At.Add(m.ttl)})
	}
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	if len(notes) > 0 && m.ttl > 0 {
		cmds = append(cmds, tea.Tick(m.ttl, func(t time.Time) tea.Msg {
			return toastExpiredMsg{at: t}
		}))
	}
	return m, tea.Batch(cmds...)
}

func (m *RootModel) pruneToasts(now time.Time) {
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.expires.After(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	next := theme.Next(theme.Current.Theme.Name)
	theme.SetTheme(next)
	m.app.SetTheme(next.Name)
	m.app.Notifier.Info(fmt.Sprintf("Theme: %s", next.Name))
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentHeight := m.height - headerHeight - footerHeight

	var content string
	switch {
	case m.helpVisible:
		h := m.help
		h.ShowAll = true
		content = theme.Current.Styles.Panel.Render(
			theme.Current.Styles.Title.Render("plando help") + "\n" + h.View(m.keys))
	case m.pane == PaneTask:
		content = m.detail.View()
	default:
		content = m.board.View(m.pane == PaneBoard)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebar.View(m.pane == PaneBoards),
		lipgloss.NewStyle().MaxHeight(contentHeight).Render(content),
	)
	if lines := strings.Count(body, "\n") + 1; lines < contentHeight {
		body += strings.Repeat("\n", contentHeight-lines)
	}

	return strings.Join([]string{m.renderHeader(), body, m.renderFooter()}, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	subtle := lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1)
	left := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.Header.Render("plando"),
		subtle.Render(fmt.Sprintf("[%s]", m.pane)),
	)

	who := "not logged in"
	if m.app.Session.LoggedIn() {
		who = m.app.Session.Email()
	}
	right := subtle.Render(fmt.Sprintf("%s • theme: %s", who, t.Name))

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders the notification line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	var status string
	if n := len(m.toasts); n > 0 {
		latest := m.toasts[n-1].note
		style := styles.ToastInfo
		switch latest.Level {
		case notify.LevelSuccess:
			style = styles.ToastSuccess
		case notify.LevelFailure:
			style = styles.ToastFailure
		}
		status = style.Render(latest.Message)
		if n > 1 {
			status += styles.HelpDesc.Render(fmt.Sprintf("  (+%d)", n-1))
		}
	}

	return status + "\n" + m.help.View(m.keys)
}
