package reminder

import (
	"fmt"
	"sort"
	"time"
)

// Filter selects a subset of reminders for listing.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterToday     Filter = "today"
	FilterOverdue   Filter = "overdue"
)

// ParseFilter maps a query value to a Filter. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted, FilterToday, FilterOverdue:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// IsOverdue reports whether the reminder's date is before today, or is today
// with its time already passed. Completion is not considered.
func IsOverdue(r Reminder, now time.Time) bool {
	today := FormatDate(now)
	if r.Date < today {
		return true
	}
	if r.Date != today {
		return false
	}
	h, m, err := ParseClock(r.Time)
	if err != nil {
		return false
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	return now.After(at)
}

// Apply returns the reminders matching f, preserving order.
func Apply(reminders []Reminder, f Filter, now time.Time) []Reminder {
	today := FormatDate(now)
	out := []Reminder{}
	for _, r := range reminders {
		var keep bool
		switch f {
		case FilterCompleted:
			keep = r.Completed
		case FilterActive:
			keep = !r.Completed
		case FilterToday:
			keep = r.Date == today && !r.Completed
		case FilterOverdue:
			keep = !r.Completed && IsOverdue(r, now)
		default:
			keep = true
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders reminders by date, then incomplete before completed, then
// priority, then time of day.
func Sort(reminders []Reminder) {
	sort.SliceStable(reminders, func(i, j int) bool {
		a, b := reminders[i], reminders[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		return minuteOfDay(a.Time) < minuteOfDay(b.Time)
	})
}

// Group is the reminders falling on one date.
type Group struct {
	Date      string     `json:"date"`
	Reminders []Reminder `json:"reminders"`
}

// GroupByDate buckets reminders by date in first-seen order. Input is
// normally sorted first.
func GroupByDate(reminders []Reminder) []Group {
	groups := []Group{}
	index := map[string]int{}
	for _, r := range reminders {
		i, ok := index[r.Date]
		if !ok {
			i = len(groups)
			index[r.Date] = i
			groups = append(groups, Group{Date: r.Date})
		}
		groups[i].Reminders = append(groups[i].Reminders, r)
	}
	return groups
}

// Due returns incomplete reminders dated today whose hour and minute equal
// now's.
func Due(reminders []Reminder, now time.Time) []Reminder {
	today := FormatDate(now)
	out := []Reminder{}
	for _, r := range reminders {
		if r.Completed || r.Date != today {
			continue
		}
		h, m, err := ParseClock(r.Time)
		if err != nil {
			continue
		}
		if h == now.Hour() && m == now.Minute() {
			out = append(out, r)
		}
	}
	return out
}
