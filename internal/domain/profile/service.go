package profile

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/clock"
)

// Backend mirrors the profile to the remote API.
type Backend interface {
	SaveProfile(ctx context.Context, p Profile) error
}

type Service struct {
	repo    Repository
	backend Backend
	clock   clock.Clock
	logger  zerolog.Logger
}

// NewService wires the profile store. backend may be nil.
func NewService(repo Repository, backend Backend, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{repo: repo, backend: backend, clock: clk, logger: logger}
}

// Get returns the stored profile with its derived display fields.
func (s *Service) Get(ctx context.Context) (*View, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	v := NewView(*p, s.clock.Now())
	return &v, nil
}

// Update merges patch onto the stored profile, validates the result and
// saves it. The backend copy is best effort; a failure there is logged and
// the local save stands.
func (s *Service) Update(ctx context.Context, patch Profile) (*View, error) {
	current, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		current = &Profile{}
	} else if err != nil {
		return nil, err
	}

	next := current.Merge(patch)
	now := s.clock.Now()
	if err := next.Validate(now); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, &next); err != nil {
		return nil, err
	}
	if s.backend != nil {
		if err := s.backend.SaveProfile(ctx, next); err != nil {
			s.logger.Error().Err(err).Msg("failed to save profile to backend")
		}
	}
	v := NewView(next, now)
	return &v, nil
}

// Replace stores a profile fetched from the backend as-is.
func (s *Service) Replace(ctx context.Context, p Profile) error {
	return s.repo.Save(ctx, &p)
}
