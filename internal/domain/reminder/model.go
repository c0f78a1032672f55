package reminder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for Reminder.Date.
const DateLayout = "2006-01-02"

// Kind records why a reminder exists.
type Kind string

const (
	KindDose   Kind = "dose"
	KindRefill Kind = "refill"
	KindManual Kind = "manual"
)

type Recurring string

const (
	RecurringNone    Recurring = "none"
	RecurringDaily   Recurring = "daily"
	RecurringWeekly  Recurring = "weekly"
	RecurringMonthly Recurring = "monthly"
)

func (r Recurring) Valid() bool {
	switch r {
	case RecurringNone, RecurringDaily, RecurringWeekly, RecurringMonthly:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// rank orders high before medium before low. Unknown values sort with medium.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	}
	return 1
}

// Reminder is a scheduled dose, refill or user-created alert. Medication joins
// to medication.Record.Name by exact equality.
type Reminder struct {
	ID            string      `json:"id"`
	Medication    string      `json:"medication"`
	Title         string      `json:"title"`
	Kind          Kind        `json:"kind"`
	Description   string      `json:"description"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
	Recurring     Recurring   `json:"recurring"`
	Priority      Priority    `json:"priority"`
	Completed     bool        `json:"completed"`
	TakenHistory  []time.Time `json:"taken_history"`
	AutoGenerated bool        `json:"auto_generated"`
}

// Subject is what the reminder is about: the medication name, or the title
// when no medication is attached.
func (r Reminder) Subject() string {
	if r.Medication != "" {
		return r.Medication
	}
	return r.Title
}

// FormatDate renders t as a local calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock parses "H:MM" or "HH:MM".
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// minuteOfDay returns -1 for unparseable times so they sort first.
func minuteOfDay(s string) int {
	h, m, err := ParseClock(s)
	if err != nil {
		return -1
	}
	return h*60 + m
}
