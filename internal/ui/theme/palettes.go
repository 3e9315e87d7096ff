package theme

import "github.com/charmbracelet/lipgloss"

// palette is the handful of colors a theme is derived from. Green is low
// priority and done, yellow is medium priority and todo.
type palette struct {
	bg, fg, subtle, highlight, border string
	primary, secondary, info          string
	green, yellow, orange, red        string
	// active marks in-progress tasks
	active string
}

func (p palette) theme(name string) Theme {
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }
	return Theme{
		Name:       name,
		Background: c(p.bg),
		Foreground: c(p.fg),
		Subtle:     c(p.subtle),
		Highlight:  c(p.highlight),
		Border:     c(p.border),

		Primary:   c(p.primary),
		Secondary: c(p.secondary),
		Info:      c(p.info),
		Success:   c(p.green),
		Warning:   c(p.yellow),
		Error:     c(p.red),

		PriorityLow:    c(p.green),
		PriorityMedium: c(p.yellow),
		PriorityHigh:   c(p.orange),

		StatusTodo:       c(p.yellow),
		StatusInProgress: c(p.active),
		StatusDone:       c(p.green),
	}
}

// Nord, https://www.nordtheme.com/
var Nord = palette{
	bg: "#2E3440", fg: "#ECEFF4", subtle: "#4C566A", highlight: "#3B4252", border: "#4C566A",
	primary: "#88C0D0", secondary: "#81A1C1", info: "#5E81AC",
	green: "#A3BE8C", yellow: "#EBCB8B", orange: "#D08770", red: "#BF616A",
	active: "#88C0D0",
}.theme("nord")

// Dracula, https://draculatheme.com/
var Dracula = palette{
	bg: "#282A36", fg: "#F8F8F2", subtle: "#6272A4", highlight: "#44475A", border: "#6272A4",
	primary: "#BD93F9", secondary: "#8BE9FD", info: "#8BE9FD",
	green: "#50FA7B", yellow: "#F1FA8C", orange: "#FFB86C", red: "#FF5555",
	active: "#8BE9FD",
}.theme("dracula")

// Gruvbox dark
var Gruvbox = palette{
	bg: "#282828", fg: "#EBDBB2", subtle: "#928374", highlight: "#3C3836", border: "#504945",
	primary: "#83A598", secondary: "#8EC07C", info: "#83A598",
	green: "#B8BB26", yellow: "#FABD2F", orange: "#FE8019", red: "#FB4934",
	active: "#83A598",
}.theme("gruvbox")

// Catppuccin Mocha
var Catppuccin = palette{
	bg: "#1E1E2E", fg: "#CDD6F4", subtle: "#6C7086", highlight: "#313244", border: "#45475A",
	primary: "#89B4FA", secondary: "#CBA6F7", info: "#74C7EC",
	green: "#A6E3A1", yellow: "#F9E2AF", orange: "#FAB387", red: "#F38BA8",
	active: "#89B4FA",
}.theme("catppuccin")
