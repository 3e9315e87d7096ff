// Package dnd tracks a drag gesture from pick-up to drop, independent of
// whether it comes from the mouse or the keyboard.
package dnd

// Kind is what is being dragged
type Kind int

const (
	KindNone Kind = iota
	KindColumn
	KindTask
)

func (k Kind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindTask:
		return "task"
	default:
		return "none"
	}
}

// Target is whatever sits under the pointer or the keyboard cursor
type Target struct {
	Kind Kind
	// Container is the board id for columns and the column id for tasks
	Container string
	ID        string
	// Control is set when the target is a button or another actionable
	// control inside the item
	Control bool
}

// Actionable reports whether pressing on the target triggers a control
// rather than picking up the item
func (t Target) Actionable() bool {
	return t.Control
}

func (t Target) draggable() bool {
	return t.Kind != KindNone && t.ID != "" && !t.Actionable()
}

// Drop is a finished gesture
type Drop struct {
	Kind      Kind
	Container string
	MovedID   string
	TargetID  string
}

// Gesture is the drag state machine. The zero value is idle.
type Gesture struct {
	active bool
	source Target
	over   Target
}

// Begin picks up the target. It refuses, and stays idle, when the target
// is actionable or not a draggable item.
func (g *Gesture) Begin(t Target) bool {
	if !t.draggable() {
		g.Cancel()
		return false
	}
	g.active = true
	g.source = t
	g.over = t
	return true
}

// Active reports whether something is picked up
func (g *Gesture) Active() bool {
	return g.active
}

// Source returns the picked-up item
func (g *Gesture) Source() Target {
	return g.source
}

// Hover returns the last accepted drop target
func (g *Gesture) Hover() Target {
	return g.over
}

// Over moves the gesture over a target. Targets of another kind or
// container are ignored.
func (g *Gesture) Over(t Target) {
	if g.accepts(t) {
		g.over = t
	}
}

// Drop ends the gesture on a target. It reports false when nothing was
// picked up, the target is incompatible, or the item is dropped on itself.
func (g *Gesture) Drop(t Target) (Drop, bool) {
	defer g.Cancel()
	if !g.active || !g.accepts(t) || t.ID == g.source.ID {
		return Drop{}, false
	}
	return Drop{
		Kind:      g.source.Kind,
		Container: g.source.Container,
		MovedID:   g.source.ID,
		TargetID:  t.ID,
	}, true
}

// Cancel abandons the gesture
func (g *Gesture) Cancel() {
	*g = Gesture{}
}

func (g *Gesture) accepts(t Target) bool {
	return g.active && t.ID != "" && t.Kind == g.source.Kind && t.Container == g.source.Container
}
