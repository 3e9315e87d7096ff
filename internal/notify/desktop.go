package notify

import (
	"os/exec"
	"strconv"
	"time"
)

// Desktop forwards notifications to the desktop via notify-send
type Desktop struct {
	AppName string
	Timeout time.Duration

	// run is replaced in tests
	run func(name string, args ...string) error
}

// NewDesktop creates a desktop sink
func NewDesktop(timeout time.Duration) *Desktop {
	return &Desktop{
		AppName: "plando",
		Timeout: timeout,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Args builds the notify-send arguments for a notification
func (d *Desktop) Args(note Notification) []string {
	args := []string{}

	switch note.Level {
	case LevelFailure:
		args = append(args, "-u", "critical")
	case LevelSuccess:
		args = append(args, "-u", "low")
	default:
		args = append(args, "-u", "normal")
	}

	if d.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(d.Timeout.Milliseconds())))
	}

	args = append(args, "-a", d.AppName)

	title := d.AppName
	if note.Entity != EntityNone {
		title = d.AppName + ": " + string(note.Entity)
	}
	args = append(args, title, note.Message)
	return args
}

// Send shows one notification. Errors are returned, not retried.
func (d *Desktop) Send(note Notification) error {
	return d.run("notify-send", d.Args(note)...)
}

// Attach subscribes the desktop sink to a notifier. Send failures are
// logged by the notifier's logger.
func (d *Desktop) Attach(n *Notifier) {
	n.Subscribe(func(note Notification) {
		if err := d.Send(note); err != nil {
			n.logger.Debug().Err(err).Msg("desktop notification failed")
		}
	})
}
