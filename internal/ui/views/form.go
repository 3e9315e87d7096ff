package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/plando/internal/ui/theme"
)

// FormAction is what a key press did to a form
type FormAction int

const (
	FormNone FormAction = iota
	FormSubmit
	FormCancel
)

type formField struct {
	key   string
	label string
	input textinput.Model
	err   string
}

// Form is a small stack of labelled text inputs with inline errors
type Form struct {
	title  string
	fields []formField
	focus  int
}

// NewForm builds a form; each field is a key, a label and an initial value
func NewForm(title string, fields ...[3]string) Form {
	f := Form{title: title}
	for _, fd := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.SetValue(fd[2])
		ti.CursorEnd()
		f.fields = append(f.fields, formField{key: fd[0], label: fd[1], input: ti})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

// Value returns the trimmed value of a field
func (f Form) Value(key string) string {
	for _, fd := range f.fields {
		if fd.key == key {
			return strings.TrimSpace(fd.input.Value())
		}
	}
	return ""
}

// SetError shows msg under the field; an unknown key lands on the first one
func (f Form) SetError(key, msg string) Form {
	idx := 0
	for i := range f.fields {
		f.fields[i].err = ""
		if f.fields[i].key == key {
			idx = i
		}
	}
	if len(f.fields) > 0 {
		f.fields[idx].err = msg
		f = f.focusOn(idx)
	}
	return f
}

func (f Form) focusOn(i int) Form {
	f.fields[f.focus].input.Blur()
	f.focus = i
	f.fields[f.focus].input.Focus()
	return f
}

// Update handles tab/shift+tab between fields, enter to submit and esc
func (f Form) Update(msg tea.Msg) (Form, FormAction, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return f, FormCancel, nil
		case "enter":
			return f, FormSubmit, nil
		case "tab", "down":
			return f.focusOn((f.focus + 1) % len(f.fields)), FormNone, textinput.Blink
		case "shift+tab", "up":
			return f.focusOn((f.focus + len(f.fields) - 1) % len(f.fields)), FormNone, textinput.Blink
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, FormNone, cmd
}

func (f Form) View(width int) string {
	styles := theme.Current.Styles

	lines := []string{styles.PanelTitle.Render(f.title)}
	for i, fd := range f.fields {
		box := styles.Input
		if i == f.focus {
			box = styles.InputFocused
		}
		lines = append(lines, styles.Label.Render(fd.label))
		lines = append(lines, box.Width(max(width-6, 20)).Render(fd.input.View()))
		if fd.err != "" {
			lines = append(lines, styles.FieldError.Render(fd.err))
		}
	}
	lines = append(lines, styles.HelpDesc.Render("tab: next field • enter: save • esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
