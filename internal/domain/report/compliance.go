package report

import (
	"fmt"
	"math"
	"time"

	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
)

type ReportType string

const (
	Weekly  ReportType = "weekly"
	Monthly ReportType = "monthly"
)

// ParseReportType defaults to weekly.
func ParseReportType(s string) (ReportType, error) {
	switch rt := ReportType(s); rt {
	case "":
		return Weekly, nil
	case Weekly, Monthly:
		return rt, nil
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// PeriodStart is seven days before now for weekly reports and one calendar
// month before now for monthly ones.
func PeriodStart(rt ReportType, now time.Time) time.Time {
	if rt == Monthly {
		return now.AddDate(0, -1, 0)
	}
	return now.AddDate(0, 0, -7)
}

type MedicationStats struct {
	Total int `json:"total"`
	Taken int `json:"taken"`
}

// Compliance summarises completed reminders since the period start.
type Compliance struct {
	Type            ReportType                 `json:"type"`
	PeriodStart     string                     `json:"period_start"`
	TotalReminders  int                        `json:"total_reminders"`
	TakenReminders  int                        `json:"taken_reminders"`
	ComplianceRate  float64                    `json:"compliance_rate"`
	MedicationStats map[string]MedicationStats `json:"medication_stats"`
}

// ComputeCompliance counts reminders dated on or after the period start. The
// rate is taken/total as a percentage rounded to one decimal, or 0 when there
// are no reminders. Reminders without a medication count toward the totals
// but not toward the per-medication breakdown.
func ComputeCompliance(reminders []reminder.Reminder, rt ReportType, now time.Time) Compliance {
	start := reminder.FormatDate(PeriodStart(rt, now))
	c := Compliance{
		Type:            rt,
		PeriodStart:     start,
		MedicationStats: map[string]MedicationStats{},
	}
	for _, r := range reminders {
		if r.Date < start {
			continue
		}
		c.TotalReminders++
		if r.Completed {
			c.TakenReminders++
		}
		if r.Medication == "" {
			continue
		}
		s := c.MedicationStats[r.Medication]
		s.Total++
		if r.Completed {
			s.Taken++
		}
		c.MedicationStats[r.Medication] = s
	}
	if c.TotalReminders > 0 {
		c.ComplianceRate = math.Round(float64(c.TakenReminders)/float64(c.TotalReminders)*1000) / 10
	}
	return c
}
