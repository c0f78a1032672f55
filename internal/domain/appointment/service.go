package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/clock"
	"github.com/kanishkhaa/smartrx/internal/platform/notification"
	"github.com/kanishkhaa/smartrx/internal/platform/worker"
)

type Service struct {
	repo   Repository
	clock  clock.Clock
	logger zerolog.Logger
}

func NewService(repo Repository, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	return s.repo.List(ctx)
}

// Schedule validates and stores a new appointment.
func (s *Service) Schedule(ctx context.Context, a *Appointment) error {
	a.HospitalName = strings.TrimSpace(a.HospitalName)
	if a.HospitalName == "" {
		return fmt.Errorf("hospital_name is required")
	}
	if a.StartsAt.IsZero() {
		return fmt.Errorf("please select date and time")
	}
	a.ID = uuid.NewString()
	a.Notified = false
	a.CreatedAt = s.clock.Now().UTC()
	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	s.logger.Info().Str("appointment_id", a.ID).Str("hospital", a.HospitalName).Time("starts_at", a.StartsAt).Msg("appointment scheduled")
	return nil
}

func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Upcoming returns appointments starting within UpcomingWindow that have not
// been announced yet.
func (s *Service) Upcoming(ctx context.Context) ([]Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := []Appointment{}
	for _, a := range all {
		if !a.Notified && a.IsUpcoming(now) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Notifier delivers a rendered notification.
type Notifier interface {
	Notify(ctx context.Context, templateID, resourceType, resourceID string, data map[string]string) (*notification.Notification, error)
}

// Poller announces each upcoming appointment once.
type Poller struct {
	*worker.Periodic
	svc      *Service
	notifier Notifier
	logger   zerolog.Logger
}

func NewPoller(svc *Service, notifier Notifier, interval time.Duration, logger zerolog.Logger) *Poller {
	p := &Poller{svc: svc, notifier: notifier, logger: logger}
	p.Periodic = worker.NewPeriodic("appointment-poller", interval, p.Check, logger)
	return p
}

// Check runs one pass. An appointment is marked notified only after the
// notification was delivered, so failures are retried on the next tick.
func (p *Poller) Check(ctx context.Context) error {
	upcoming, err := p.svc.Upcoming(ctx)
	if err != nil {
		return err
	}
	for _, a := range upcoming {
		data := map[string]string{"hospital": a.HospitalName, "purpose": a.Purpose}
		if _, err := p.notifier.Notify(ctx, notification.TemplateAppointmentUpcoming, "appointment", a.ID, data); err != nil {
			p.logger.Warn().Err(err).Str("appointment_id", a.ID).Msg("appointment notification not delivered")
			continue
		}
		if err := p.svc.repo.SetNotified(ctx, a.ID, true); err != nil {
			p.logger.Error().Err(err).Str("appointment_id", a.ID).Msg("failed to mark appointment notified")
		}
	}
	return nil
}
