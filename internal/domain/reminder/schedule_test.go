package reminder

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 15, 0, time.Local)

func rem(id, date, clock string, completed bool, p Priority) Reminder {
	return Reminder{ID: id, Date: date, Time: clock, Completed: completed, Priority: p}
}

func ids(rs []Reminder) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		h, m   int
		hasErr bool
	}{
		{"8:00", 8, 0, false},
		{"09:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"9:5", 0, 0, true},
		{"noon", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if (err != nil) != tt.hasErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.hasErr)
			continue
		}
		if !tt.hasErr && (h != tt.h || m != tt.m) {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.h, tt.m)
		}
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Errorf("empty filter: %v %v", f, err)
	}
	if _, err := ParseFilter("later"); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestIsOverdue(t *testing.T) {
	tests := []struct {
		name string
		r    Reminder
		want bool
	}{
		{"yesterday", rem("a", "2024-03-09", "23:00", false, ""), true},
		{"earlier today", rem("b", "2024-03-10", "9:30", false, ""), true},
		{"later today", rem("c", "2024-03-10", "10:00", false, ""), false},
		{"tomorrow", rem("d", "2024-03-11", "00:00", false, ""), false},
	}
	for _, tt := range tests {
		if got := IsOverdue(tt.r, fixedNow); got != tt.want {
			t.Errorf("%s: IsOverdue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestApply(t *testing.T) {
	all := []Reminder{
		rem("past", "2024-03-09", "08:00", false, ""),
		rem("done", "2024-03-10", "08:00", true, ""),
		rem("soon", "2024-03-10", "18:00", false, ""),
		rem("late", "2024-03-10", "08:00", false, ""),
		rem("next", "2024-03-11", "08:00", false, ""),
	}
	tests := map[Filter][]string{
		FilterAll:       {"past", "done", "soon", "late", "next"},
		FilterCompleted: {"done"},
		FilterActive:    {"past", "soon", "late", "next"},
		FilterToday:     {"soon", "late"},
		FilterOverdue:   {"past", "late"},
	}
	for f, want := range tests {
		if got := ids(Apply(all, f, fixedNow)); !equalIDs(got, want...) {
			t.Errorf("%s: got %v, want %v", f, got, want)
		}
	}
}

func TestSort(t *testing.T) {
	rs := []Reminder{
		rem("d2-low", "2024-03-11", "08:00", false, PriorityLow),
		rem("d1-done", "2024-03-10", "07:00", true, PriorityHigh),
		rem("d1-med-10", "2024-03-10", "10:00", false, PriorityMedium),
		rem("d1-med-8", "2024-03-10", "8:00", false, PriorityMedium),
		rem("d1-high", "2024-03-10", "23:00", false, PriorityHigh),
	}
	Sort(rs)
	want := []string{"d1-high", "d1-med-8", "d1-med-10", "d1-done", "d2-low"}
	if got := ids(rs); !equalIDs(got, want...) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGroupByDate(t *testing.T) {
	rs := []Reminder{
		rem("a", "2024-03-10", "08:00", false, ""),
		rem("b", "2024-03-10", "09:00", false, ""),
		rem("c", "2024-03-11", "08:00", false, ""),
	}
	groups := GroupByDate(rs)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Date != "2024-03-10" || len(groups[0].Reminders) != 2 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].Date != "2024-03-11" || len(groups[1].Reminders) != 1 {
		t.Errorf("unexpected second group: %+v", groups[1])
	}
	if len(GroupByDate(nil)) != 0 {
		t.Error("expected no groups for no reminders")
	}
}

func TestDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 40, 0, time.Local)
	rs := []Reminder{
		rem("unpadded", "2024-03-10", "8:00", false, ""),
		rem("padded", "2024-03-10", "08:00", false, ""),
		rem("done", "2024-03-10", "08:00", true, ""),
		rem("other-day", "2024-03-11", "08:00", false, ""),
		rem("other-minute", "2024-03-10", "08:01", false, ""),
		rem("bad-time", "2024-03-10", "eight", false, ""),
	}
	if got := ids(Due(rs, now)); !equalIDs(got, "unpadded", "padded") {
		t.Errorf("got %v", got)
	}
}
