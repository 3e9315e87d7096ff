package quickadd

import (
	"testing"
	"time"

	"github.com/dori/plando/internal/model"
)

// Wednesday
var now = time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		title    string
		column   string
		priority model.Priority
		deadline *time.Time
	}{
		{"Buy milk", "Buy milk", "", model.PriorityLow, nil},
		{"Write report #doing !high due:friday", "Write report", "doing", model.PriorityHigh, ptr(date(2025, 3, 7))},
		{"Ship #in_progress !m", "Ship", "in progress", model.PriorityMedium, nil},
		{"Fix !!! bug due:someday", "Fix !!! bug due:someday", "", model.PriorityLow, nil},
		{"Plan due:2025-04-01 trip", "Plan trip", "", model.PriorityLow, ptr(date(2025, 4, 1))},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Parse(tt.text, now)
			if got.Title != tt.title || got.Column != tt.column || got.Priority != tt.priority {
				t.Errorf("Parse = %+v", got)
			}
			if (got.Deadline == nil) != (tt.deadline == nil) ||
				(got.Deadline != nil && !got.Deadline.Equal(*tt.deadline)) {
				t.Errorf("deadline = %v, want %v", got.Deadline, tt.deadline)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", date(2025, 3, 5)},
		{"tomorrow", date(2025, 3, 6)},
		{"wed", date(2025, 3, 12)},
		{"Monday", date(2025, 3, 10)},
		{"nextweek", date(2025, 3, 12)},
		{"03/20/2025", date(2025, 3, 20)},
		{"jan 2", date(2025, 1, 2)},
		{"Feb 14", date(2025, 2, 14)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDate(tt.in, now)
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := ParseDate("never", now); got != nil {
		t.Errorf("ParseDate(never) = %v", got)
	}
}

func TestResolveColumn(t *testing.T) {
	cols := []model.Column{{ID: "c1", Title: "Todo"}, {ID: "c2", Title: "In Progress"}}

	if c, ok := ResolveColumn(cols, ""); !ok || c.ID != "c1" {
		t.Errorf("default column = %+v", c)
	}
	if c, ok := ResolveColumn(cols, "in progress"); !ok || c.ID != "c2" {
		t.Errorf("named column = %+v", c)
	}
	if _, ok := ResolveColumn(cols, "Done"); ok {
		t.Error("unknown column resolved")
	}
	if _, ok := ResolveColumn(nil, ""); ok {
		t.Error("resolved a column on an empty board")
	}
}

func ptr(t time.Time) *time.Time { return &t }
