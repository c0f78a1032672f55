package report

import (
	"sort"
	"strings"
	"time"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
)

// TypeSlice is one medication-type share.
type TypeSlice struct {
	Name       Bucket  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color"`
	Emoji      string  `json:"emoji"`
}

// DoseItem is a dose reminder joined with its medication's description.
type DoseItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Time  string `json:"time"`
	Taken bool   `json:"taken"`
	Type  string `json:"type"`
}

type Refill struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// Dashboard is the derived summary shown on the home screen.
type Dashboard struct {
	TotalMedications   int         `json:"total_medications"`
	NextRefillDate     string      `json:"next_refill_date"`
	MissedDosesWeek    int         `json:"missed_doses_week"`
	MonthlyHealthScore int         `json:"monthly_health_score"`
	MedicationTypes    []TypeSlice `json:"medication_types"`
	TodaysMedications  []DoseItem  `json:"todays_medications"`
	MissedDoses        []DoseItem  `json:"missed_doses"`
	UpcomingRefills    []Refill    `json:"upcoming_refills"`
}

func emptyDashboard() Dashboard {
	return Dashboard{
		NextRefillDate:    "N/A",
		MedicationTypes:   []TypeSlice{},
		TodaysMedications: []DoseItem{},
		MissedDoses:       []DoseItem{},
		UpcomingRefills:   []Refill{},
	}
}

// isRefill matches refill reminders, including ones loaded without a kind.
func isRefill(r reminder.Reminder) bool {
	return r.Kind == reminder.KindRefill || (r.Recurring == reminder.RecurringNone && strings.Contains(r.Title, "Refill"))
}

// isDose matches dose reminders, including ones loaded without a kind.
func isDose(r reminder.Reminder) bool {
	return r.Kind == reminder.KindDose || strings.Contains(r.Title, "Take") || strings.Contains(strings.ToLower(r.Title), "dose")
}

// isScheduledDose is the narrower test used for today's schedule.
func isScheduledDose(r reminder.Reminder) bool {
	return r.Kind == reminder.KindDose || strings.Contains(r.Title, "Take")
}

// ComputeDashboard derives the dashboard. With no medications every figure is
// zero and the next refill date is "N/A". Only open refills dated today or
// later count as upcoming.
func ComputeDashboard(meds []medication.Record, reminders []reminder.Reminder, now time.Time) Dashboard {
	d := emptyDashboard()
	if len(meds) == 0 {
		return d
	}

	descriptions := make(map[string]string, len(meds))
	for _, m := range meds {
		if _, seen := descriptions[m.Name]; !seen {
			descriptions[m.Name] = m.Description
		}
	}
	typeOf := func(name string) string {
		if desc := descriptions[name]; desc != "" {
			return desc
		}
		return "Unknown"
	}

	today := reminder.FormatDate(now)
	weekAgo := now.AddDate(0, 0, -7)

	for _, r := range reminders {
		if isRefill(r) && !r.Completed && r.Date >= today {
			d.UpcomingRefills = append(d.UpcomingRefills, Refill{Name: r.Medication, Date: r.Date})
		}

		if !r.Completed && isDose(r) {
			if day, err := time.ParseInLocation(reminder.DateLayout, r.Date, now.Location()); err == nil &&
				!day.Before(weekAgo) && !day.After(now) {
				d.MissedDoses = append(d.MissedDoses, DoseItem{
					ID: r.ID, Name: r.Medication, Date: r.Date, Time: r.Time, Type: typeOf(r.Medication),
				})
			}
		}

		if r.Date == today && isScheduledDose(r) {
			d.TodaysMedications = append(d.TodaysMedications, DoseItem{
				ID: r.ID, Name: r.Medication, Date: r.Date, Time: r.Time, Taken: r.Completed, Type: typeOf(r.Medication),
			})
		}
	}

	sort.SliceStable(d.UpcomingRefills, func(i, j int) bool {
		return d.UpcomingRefills[i].Date < d.UpcomingRefills[j].Date
	})
	if len(d.UpcomingRefills) > 0 {
		d.NextRefillDate = d.UpcomingRefills[0].Date
	}

	d.TotalMedications = len(meds)
	d.MissedDosesWeek = len(d.MissedDoses)
	d.MonthlyHealthScore = HealthScore(d.MissedDosesWeek)
	d.MedicationTypes = TypeBreakdown(meds)
	return d
}

// HealthScore is 100 minus 5 per missed dose, clamped to [0, 100].
func HealthScore(missed int) int {
	score := 100 - 5*missed
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TypeBreakdown counts medications per bucket in first-seen order.
func TypeBreakdown(meds []medication.Record) []TypeSlice {
	slices := []TypeSlice{}
	index := map[Bucket]int{}
	for _, m := range meds {
		b := Classify(m.Description)
		i, ok := index[b]
		if !ok {
			i = len(slices)
			index[b] = i
			slices = append(slices, TypeSlice{Name: b, Color: b.Color(), Emoji: b.Emoji()})
		}
		slices[i].Count++
	}
	for i := range slices {
		slices[i].Percentage = float64(slices[i].Count) / float64(len(meds)) * 100
	}
	return slices
}
