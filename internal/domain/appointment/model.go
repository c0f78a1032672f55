// Package appointment schedules hospital visits and warns shortly before them.
package appointment

import (
	"context"
	"errors"
	"time"
)

// UpcomingWindow is how far ahead an appointment counts as upcoming.
const UpcomingWindow = 15 * time.Minute

var ErrNotFound = errors.New("appointment not found")

type Appointment struct {
	ID           string    `json:"id"`
	HospitalName string    `json:"hospital_name"`
	Address      string    `json:"address"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	StartsAt     time.Time `json:"starts_at"`
	Purpose      string    `json:"purpose"`
	Notified     bool      `json:"notified"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsUpcoming reports whether a starts within (now, now+UpcomingWindow].
func (a Appointment) IsUpcoming(now time.Time) bool {
	d := a.StartsAt.Sub(now)
	return d > 0 && d <= UpcomingWindow
}

// Repository stores appointments ordered by start time.
type Repository interface {
	List(ctx context.Context) ([]Appointment, error)
	Get(ctx context.Context, id string) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id string) error
	SetNotified(ctx context.Context, id string, notified bool) error
}
