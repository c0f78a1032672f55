package reminder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/platform/clock"
)

// ErrConfirmFailed is returned when the backend rejects a mark-taken command
// and the local change has been rolled back.
var ErrConfirmFailed = errors.New("could not confirm reminder with backend")

// Confirmer acknowledges a completed dose with the backend.
type Confirmer interface {
	CompleteReminder(ctx context.Context, id string) error
}

type Service struct {
	repo      Repository
	confirmer Confirmer
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewService wires the reminder store. confirmer may be nil, in which case
// mark-taken is purely local.
func NewService(repo Repository, confirmer Confirmer, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{repo: repo, confirmer: confirmer, clock: clk, logger: logger}
}

// Now is the service clock, shared with the report handlers.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) All(ctx context.Context) ([]Reminder, error) {
	return s.repo.List(ctx)
}

// List returns the filtered reminders in display order.
func (s *Service) List(ctx context.Context, f Filter) ([]Reminder, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := Apply(all, f, s.clock.Now())
	Sort(out)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Reminder, error) {
	return s.repo.Get(ctx, id)
}

// Add stores a user-created reminder. Title and time are required; the date
// defaults to today, recurrence to daily and priority to medium.
func (s *Service) Add(ctx context.Context, r *Reminder) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if _, _, err := ParseClock(r.Time); err != nil {
		return err
	}
	now := s.clock.Now()
	if r.Date == "" {
		r.Date = FormatDate(now)
	} else if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid date %q", r.Date)
	}
	if r.Recurring == "" {
		r.Recurring = RecurringDaily
	}
	if !r.Recurring.Valid() {
		return fmt.Errorf("invalid recurring: %s", r.Recurring)
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("invalid priority: %s", r.Priority)
	}
	r.Kind = KindManual
	r.AutoGenerated = false
	r.Completed = false
	r.TakenHistory = []time.Time{}

	ms := now.UnixMilli()
	for attempt := 0; ; attempt++ {
		r.ID = "manual-" + strconv.FormatInt(ms+int64(attempt), 10)
		err := s.repo.Create(ctx, r)
		if !errors.Is(err, ErrDuplicate) || attempt == 9 {
			return err
		}
	}
}

// AppendDerived derives dose and refill reminders for meds and appends them.
// Existing reminders are never recomputed.
func (s *Service) AppendDerived(ctx context.Context, meds []medication.Record) ([]Reminder, error) {
	now := s.clock.Now()
	derived := Derive(meds, now, now.UnixMilli())
	created := make([]Reminder, 0, len(derived))
	for i := range derived {
		if err := s.repo.Create(ctx, &derived[i]); err != nil {
			if errors.Is(err, ErrDuplicate) {
				s.logger.Warn().Str("id", derived[i].ID).Msg("derived reminder id already exists, skipping")
				continue
			}
			return created, fmt.Errorf("create reminder %s: %w", derived[i].ID, err)
		}
		created = append(created, derived[i])
	}
	return created, nil
}

// Toggle flips the completed flag.
func (s *Service) Toggle(ctx context.Context, id string) (*Reminder, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Completed = !r.Completed
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// MarkTaken completes an incomplete reminder and records the time taken. The
// change is applied locally first and then confirmed with the backend; if
// confirmation fails the previous state is restored and ErrConfirmFailed is
// returned. Already completed reminders are returned unchanged.
func (s *Service) MarkTaken(ctx context.Context, id string) (*Reminder, error) {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev.Completed {
		return prev, nil
	}

	next := *prev
	next.Completed = true
	next.TakenHistory = append(append([]time.Time{}, prev.TakenHistory...), s.clock.Now().UTC())
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	if s.confirmer == nil {
		return &next, nil
	}

	if err := s.confirmer.CompleteReminder(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("reminder_id", id).Msg("mark taken rejected, rolling back")
		restored, rbErr := s.revertTaken(ctx, prev)
		if rbErr != nil {
			return nil, fmt.Errorf("%w: %v (rollback failed: %v)", ErrConfirmFailed, err, rbErr)
		}
		return restored, fmt.Errorf("%w: %v", ErrConfirmFailed, err)
	}
	return &next, nil
}

// revertTaken restores only the fields MarkTaken changed, keeping any edits
// made to the reminder while the confirmation was in flight.
func (s *Service) revertTaken(ctx context.Context, prev *Reminder) (*Reminder, error) {
	cur, err := s.repo.Get(ctx, prev.ID)
	if err != nil {
		return nil, err
	}
	cur.Completed = prev.Completed
	cur.TakenHistory = prev.TakenHistory
	if err := s.repo.Update(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ReplaceAll swaps the whole collection, as done after a backend refresh.
func (s *Service) ReplaceAll(ctx context.Context, reminders []Reminder) error {
	return s.repo.ReplaceAll(ctx, reminders)
}

// Due returns the reminders due this minute.
func (s *Service) Due(ctx context.Context) ([]Reminder, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Due(all, s.clock.Now()), nil
}
