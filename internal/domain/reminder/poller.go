package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/notification"
	"github.com/kanishkhaa/smartrx/internal/platform/worker"
)

// Notifier delivers a rendered notification.
type Notifier interface {
	Notify(ctx context.Context, templateID, resourceType, resourceID string, data map[string]string) (*notification.Notification, error)
}

// Poller checks for due reminders on a fixed interval and notifies each one
// once per due minute.
type Poller struct {
	*worker.Periodic
	svc      *Service
	notifier Notifier
	logger   zerolog.Logger

	mu   sync.Mutex
	sent map[string]string // reminder id -> "date time" already notified
}

func NewPoller(svc *Service, notifier Notifier, interval time.Duration, logger zerolog.Logger) *Poller {
	p := &Poller{svc: svc, notifier: notifier, logger: logger, sent: make(map[string]string)}
	p.Periodic = worker.NewPeriodic("reminder-poller", interval, p.Check, logger)
	return p
}

// Check runs one due-reminder pass.
func (p *Poller) Check(ctx context.Context) error {
	due, err := p.svc.Due(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.prune(FormatDate(p.svc.Now()))
	for _, r := range due {
		key := r.Date + " " + r.Time
		if p.sent[r.ID] == key {
			continue
		}
		templateID := notification.TemplateMedicationReminder
		if r.Kind == KindRefill {
			templateID = notification.TemplateRefillDue
		}
		data := map[string]string{"medication": r.Subject(), "title": r.Title, "time": r.Time}
		if _, err := p.notifier.Notify(ctx, templateID, "reminder", r.ID, data); err != nil {
			p.logger.Warn().Err(err).Str("reminder_id", r.ID).Msg("reminder notification not delivered")
			continue
		}
		p.sent[r.ID] = key
	}
	return nil
}

// prune forgets notifications for days before today. Keys start with the ISO
// date, so any key from today sorts at or after today itself.
func (p *Poller) prune(today string) {
	for id, key := range p.sent {
		if key < today {
			delete(p.sent, id)
		}
	}
}
