package ui

import "time"

// Pane is the part of the screen that receives keys
type Pane int

const (
	PaneBoards Pane = iota
	PaneBoard
	PaneTask
)

// String returns the display name for a pane
func (p Pane) String() string {
	switch p {
	case PaneBoards:
		return "Boards"
	case PaneBoard:
		return "Board"
	case PaneTask:
		return "Task"
	default:
		return "Unknown"
	}
}

// toastExpiredMsg prunes notifications older than their time to live
type toastExpiredMsg struct {
	at time.Time
}
