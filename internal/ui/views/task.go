package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/plando/internal/model"
	"github.com/dori/plando/internal/optimistic"
	"github.com/dori/plando/internal/quickadd"
	"github.com/dori/plando/internal/remote"
	"github.com/dori/plando/internal/store"
	"github.com/dori/plando/internal/ui/theme"
)

type taskMode int

const (
	taskNormal taskMode = iota
	taskEdit
	taskDeadline
)

// TaskDetail shows one task with its subtasks
type TaskDetail struct {
	c        *optimistic.Coordinator
	boardID  string
	columnID string
	taskID   string
	now      func() time.Time

	width  int
	height int
	cursor int
	mode   taskMode
	form   Form
}

func NewTaskDetail(c *optimistic.Coordinator, boardID, columnID, taskID string) TaskDetail {
	return TaskDetail{c: c, boardID: boardID, columnID: columnID, taskID: taskID, now: time.Now}
}

func (v TaskDetail) SetSize(width, height int) TaskDetail {
	v.width = width
	v.height = height
	return v
}

func (v TaskDetail) IsInputMode() bool {
	return v.mode != taskNormal
}

func (v TaskDetail) task() (model.Task, bool) {
	return store.TaskByID(v.c.Store(), v.boardID, v.columnID, v.taskID)
}

func (v TaskDetail) Update(msg tea.Msg) (TaskDetail, tea.Cmd) {
	if v.mode != taskNormal {
		return v.updateForm(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	t, found := v.task()

	switch key.String() {
	case "esc":
		return v, func() tea.Msg { return CloseTaskMsg{} }
	case "j", "down":
		if v.cursor < len(t.SubTasks)-1 {
			v.cursor++
		}
	case "k", "up":
		if v.cursor > 0 {
			v.cursor--
		}
	case " ":
		if found && v.cursor < len(t.SubTasks) {
			op, err := v.c.ToggleSubtask(v.boardID, v.columnID, v.taskID, t.SubTasks[v.cursor].ID)
			cmd, _ := mutation(v.c, op, err)
			return v, cmd
		}
	case "e":
		if found {
			v.mode = taskEdit
			v.form = NewForm("Edit task",
				[3]string{"title", "Title", t.Title},
				[3]string{"description", "Description", t.Description},
			)
			return v, textinput.Blink
		}
	case "t":
		if found {
			current := ""
			if t.Deadline != nil {
				current = t.Deadline.Format("2006-01-02")
			}
			v.mode = taskDeadline
			v.form = NewForm("Deadline (today, friday, 2025-03-01; empty clears)",
				[3]string{"deadline", "Deadline", current})
			return v, textinput.Blink
		}
	case "p", "s":
		if found {
			var p remote.TaskPatch
			if key.String() == "p" {
				next := t.Priority.Next()
				p.Priority = &next
			} else {
				next := t.Status.Next()
				p.Status = &next
			}
			op, err := v.c.EditTask(v.boardID, v.columnID, v.taskID, p)
			cmd, _ := mutation(v.c, op, err)
			return v, cmd
		}
	}
	return v, nil
}

func (v TaskDetail) updateForm(msg tea.Msg) (TaskDetail, tea.Cmd) {
	form, action, cmd := v.form.Update(msg)
	v.form = form

	switch action {
	case FormCancel:
		v.mode = taskNormal
		return v, nil
	case FormSubmit:
		var p remote.TaskPatch
		if v.mode == taskEdit {
			title, desc := v.form.Value("title"), v.form.Value("description")
			p.Title, p.Description = &title, &desc
		} else {
			raw := v.form.Value("deadline")
			if raw == "" {
				p.ClearDeadline = true
			} else if d := quickadd.ParseDate(raw, v.now()); d != nil {
				p.Deadline = d
			} else {
				v.form = v.form.SetError("deadline", fmt.Sprintf("Cannot read %q as a date", raw))
				return v, nil
			}
		}

		op, err := v.c.EditTask(v.boardID, v.columnID, v.taskID, p)
		run, verr := mutation(v.c, op, err)
		if verr != nil {
			v.form = v.form.SetError(verr.Field, verr.Message)
			return v, nil
		}
		v.mode = taskNormal
		return v, run
	}
	return v, cmd
}

func (v TaskDetail) View() string {
	styles := theme.Current.Styles
	th := theme.Current.Theme

	t, ok := v.task()
	if !ok {
		return styles.Panel.Render(styles.Placeholder.Render("This task no longer exists.") + "\n\n" +
			styles.HelpDesc.Render("esc: back"))
	}

	var b strings.Builder
	title := t.Title
	if t.Pending {
		title += " (saving…)"
	}
	b.WriteString(styles.Title.Render(title))
	b.WriteString("\n")

	meta := []string{
		styles.Label.Render("status ") + lipgloss.NewStyle().Foreground(th.StatusColor(t.Status)).Render(string(t.Status)),
		styles.Label.Render("priority ") + lipgloss.NewStyle().Foreground(th.PriorityColor(t.Priority)).Render(string(t.Priority)),
	}
	if t.Deadline != nil {
		due := styles.DueDate
		if t.IsOverdue(v.now()) {
			due = styles.FieldError
		}
		meta = append(meta, styles.Label.Render("due ")+due.Render(t.Deadline.Format("Mon, Jan 2 2006")))
	}
	b.WriteString(strings.Join(meta, "   "))
	b.WriteString("\n\n")

	if t.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(max(v.width-8, 20)).Render(t.Description))
		b.WriteString("\n\n")
	}

	done, total := t.SubTaskProgress()
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("Subtasks %d/%d", done, total)))
	b.WriteString("\n")
	for i, st := range t.SubTasks {
		check := "[ ]"
		if st.Done {
			check = "[x]"
		}
		line := check + " " + st.Title
		style := styles.TaskNormal
		switch {
		case i == v.cursor && v.mode == taskNormal:
			style = styles.TaskFocused
		case st.Done:
			style = styles.TaskDone
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	switch v.mode {
	case taskEdit, taskDeadline:
		b.WriteString("\n")
		b.WriteString(v.form.View(v.width - 6))
	default:
		b.WriteString("\n")
		b.WriteString(styles.HelpDesc.Render("space: toggle subtask • e: edit • t: deadline • p: priority • s: status • esc: back"))
	}

	return styles.Panel.Width(max(v.width-4, 30)).Render(b.String())
}
