// Package quickadd parses one-line task descriptions such as
// "Write report #doing !high due:friday".
package quickadd

import (
	"strings"
	"time"

	"github.com/dori/plando/internal/model"
)

// Entry is a parsed quick-add line
type Entry struct {
	Title    string
	Column   string // column title after '#', "" when absent
	Priority model.Priority
	Deadline *time.Time
}

// Parse splits text into title words and markers. Markers that do not parse
// stay part of the title.
func Parse(text string, now time.Time) Entry {
	e := Entry{Priority: model.PriorityLow}

	var titleParts []string
	for _, word := range strings.Fields(text) {
		switch {
		case strings.HasPrefix(word, "#") && len(word) > 1:
			e.Column = strings.ReplaceAll(word[1:], "_", " ")

		case strings.HasPrefix(word, "!"):
			if p, ok := parsePriority(strings.TrimPrefix(word, "!")); ok {
				e.Priority = p
			} else {
				titleParts = append(titleParts, word)
			}

		case strings.HasPrefix(strings.ToLower(word), "due:"):
			if d := ParseDate(word[len("due:"):], now); d != nil {
				e.Deadline = d
			} else {
				titleParts = append(titleParts, word)
			}

		default:
			titleParts = append(titleParts, word)
		}
	}

	e.Title = strings.Join(titleParts, " ")
	return e
}

func parsePriority(s string) (model.Priority, bool) {
	switch strings.ToLower(s) {
	case "low", "l":
		return model.PriorityLow, true
	case "medium", "med", "m":
		return model.PriorityMedium, true
	case "high", "hi", "h":
		return model.PriorityHigh, true
	}
	return "", false
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseDate understands today, tomorrow, weekday names (the next one
// strictly after today), nextweek and a few absolute layouts. The result is
// a calendar date as produced by model.DateOf.
func ParseDate(s string, now time.Time) *time.Time {
	today := model.DateOf(now)
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "":
		return nil
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "nextweek":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	if day, ok := weekdays[s]; ok {
		daysUntil := int(day - today.Weekday())
		if daysUntil <= 0 {
			daysUntil += 7
		}
		t := today.AddDate(0, 0, daysUntil)
		return &t
	}

	for _, layout := range []string{"2006-01-02", "01/02/2006", "Jan 2", "Jan 2, 2006"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(today.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		t = model.DateOf(t)
		return &t
	}
	return nil
}

// ResolveColumn finds the column named by an entry, matching titles
// case-insensitively. An empty name selects the first column.
func ResolveColumn(cols []model.Column, name string) (model.Column, bool) {
	if len(cols) == 0 {
		return model.Column{}, false
	}
	if name == "" {
		return cols[0], true
	}
	for _, c := range cols {
		if strings.EqualFold(c.Title, name) {
			return c, true
		}
	}
	return model.Column{}, false
}
