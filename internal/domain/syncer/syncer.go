// Package syncer reloads the local collections from the backend.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/prescription"
	"github.com/kanishkhaa/smartrx/internal/domain/profile"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
)

// Collection names used in Result.Errors.
const (
	Prescriptions = "prescriptions"
	Medications   = "medications"
	Reminders     = "reminders"
	Profile       = "profile"
)

// Source is the backend read side.
type Source interface {
	FetchPrescriptions(ctx context.Context) ([]prescription.Prescription, error)
	FetchMedications(ctx context.Context) ([]medication.Record, error)
	FetchReminders(ctx context.Context) ([]reminder.Reminder, error)
	FetchProfile(ctx context.Context) (*profile.Profile, error)
}

// Targets are the local stores a refresh replaces.
type Targets struct {
	Prescriptions interface {
		ReplaceAll(ctx context.Context, items []prescription.Prescription) error
	}
	Medications interface {
		ReplaceAll(ctx context.Context, records []medication.Record) error
	}
	Reminders interface {
		ReplaceAll(ctx context.Context, reminders []reminder.Reminder) error
	}
	Profile interface {
		Replace(ctx context.Context, p profile.Profile) error
	}
}

// Result reports what one refresh loaded. Errors is keyed by collection.
type Result struct {
	Prescriptions int               `json:"prescriptions"`
	Medications   int               `json:"medications"`
	Reminders     int               `json:"reminders"`
	Profile       bool              `json:"profile"`
	Errors        map[string]string `json:"errors,omitempty"`
	DurationMS    int64             `json:"duration_ms"`
}

// Failed reports whether every collection failed.
func (r *Result) Failed() bool {
	return len(r.Errors) == 4
}

// Err joins the per-collection errors, or returns nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Errors))
	for n := range r.Errors {
		names = append(names, n)
	}
	sort.Strings(names)
	errs := make([]error, 0, len(names))
	for _, n := range names {
		errs = append(errs, fmt.Errorf("%s: %s", n, r.Errors[n]))
	}
	return errors.Join(errs...)
}

type Service struct {
	source  Source
	targets Targets
	logger  zerolog.Logger

	// mu serialises refreshes so two replaces never interleave.
	mu sync.Mutex
}

func NewService(source Source, targets Targets, logger zerolog.Logger) *Service {
	return &Service{source: source, targets: targets, logger: logger}
}

// Refresh fetches all collections concurrently and replaces each local
// collection whose fetch succeeded. A failing fetch never cancels or rolls
// back its siblings.
func (s *Service) Refresh(ctx context.Context) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := &Result{}
	var mu sync.Mutex
	fail := func(name string, err error) {
		s.logger.Warn().Err(err).Str("collection", name).Msg("refresh failed")
		mu.Lock()
		defer mu.Unlock()
		if res.Errors == nil {
			res.Errors = make(map[string]string)
		}
		res.Errors[name] = err.Error()
	}

	var g errgroup.Group
	g.Go(func() error {
		items, err := s.source.FetchPrescriptions(ctx)
		if err == nil {
			err = s.targets.Prescriptions.ReplaceAll(ctx, items)
		}
		if err != nil {
			fail(Prescriptions, err)
			return nil
		}
		mu.Lock()
		res.Prescriptions = len(items)
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		records, err := s.source.FetchMedications(ctx)
		if err == nil {
			err = s.targets.Medications.ReplaceAll(ctx, records)
		}
		if err != nil {
			fail(Medications, err)
			return nil
		}
		mu.Lock()
		res.Medications = len(records)
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		rems, err := s.source.FetchReminders(ctx)
		if err == nil {
			err = s.targets.Reminders.ReplaceAll(ctx, rems)
		}
		if err != nil {
			fail(Reminders, err)
			return nil
		}
		mu.Lock()
		res.Reminders = len(rems)
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		p, err := s.source.FetchProfile(ctx)
		if errors.Is(err, profile.ErrNotFound) {
			return nil
		}
		if err == nil {
			err = s.targets.Profile.Replace(ctx, *p)
		}
		if err != nil {
			fail(Profile, err)
			return nil
		}
		mu.Lock()
		res.Profile = true
		mu.Unlock()
		return nil
	})
	g.Wait()

	res.DurationMS = time.Since(start).Milliseconds()
	s.logger.Info().
		Int("prescriptions", res.Prescriptions).
		Int("medications", res.Medications).
		Int("reminders", res.Reminders).
		Bool("profile", res.Profile).
		Int("errors", len(res.Errors)).
		Int64("duration_ms", res.DurationMS).
		Msg("refresh complete")
	return res
}

// RefreshErr runs Refresh and returns only its joined error, for callers that
// need a plain reload hook.
func (s *Service) RefreshErr(ctx context.Context) error {
	return s.Refresh(ctx).Err()
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/sync", h.Sync)
}

// Sync handles POST /sync. Partial failures are reported in the body with
// 200; 502 only when nothing could be loaded.
func (h *Handler) Sync(c echo.Context) error {
	res := h.svc.Refresh(c.Request().Context())
	if res.Failed() {
		return c.JSON(http.StatusBadGateway, res)
	}
	return c.JSON(http.StatusOK, res)
}
