package reminder

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
)

// refillAfterDays is how many calendar days ahead a refill reminder is
// scheduled.
const refillAfterDays = 30

// refillOffset is the id distance between a dose reminder and its refill.
// It grows with the batch so ids in one batch never collide.
func refillOffset(n int) int64 {
	if n > 100 {
		return int64(n)
	}
	return 100
}

// Derive builds one daily dose reminder and one refill reminder per
// medication. Dose i is due at 8+i o'clock today with id base+i; refill i is
// due at 09:00 thirty calendar days from today with id base+max(100,n)+i.
// The output holds every dose reminder followed by every refill reminder.
func Derive(meds []medication.Record, today time.Time, base int64) []Reminder {
	doses := make([]Reminder, 0, len(meds))
	refills := make([]Reminder, 0, len(meds))
	date := FormatDate(today)
	refillDate := FormatDate(today.AddDate(0, 0, refillAfterDays))
	offset := refillOffset(len(meds))

	for i, med := range meds {
		desc := med.Dosage
		if desc == "" {
			desc = "As prescribed"
		}
		doses = append(doses, Reminder{
			ID:            strconv.FormatInt(base+int64(i), 10),
			Medication:    med.Name,
			Title:         "Take " + med.Name,
			Kind:          KindDose,
			Description:   desc,
			Date:          date,
			Time:          fmt.Sprintf("%d:00", 8+i),
			Recurring:     RecurringDaily,
			Priority:      PriorityMedium,
			TakenHistory:  []time.Time{},
			AutoGenerated: true,
		})
		refills = append(refills, Reminder{
			ID:            strconv.FormatInt(base+offset+int64(i), 10),
			Medication:    med.Name,
			Title:         "Refill " + med.Name,
			Kind:          KindRefill,
			Description:   "Contact pharmacy for refill",
			Date:          refillDate,
			Time:          "09:00",
			Recurring:     RecurringNone,
			Priority:      PriorityMedium,
			TakenHistory:  []time.Time{},
			AutoGenerated: true,
		})
	}
	return append(doses, refills...)
}
