package medication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Service owns the medication collection.
type Service struct {
	repo         Repository
	enricher     *Enricher
	alternatives AlternativesSource
	rules        InteractionRules
	logger       zerolog.Logger
}

// NewService wires the collection. alternatives may be nil.
func NewService(repo Repository, enricher *Enricher, alternatives AlternativesSource, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		enricher:     enricher,
		alternatives: alternatives,
		rules:        DefaultInteractionRules(),
		logger:       logger,
	}
}

// SetInteractionRules replaces the default interaction table.
func (s *Service) SetInteractionRules(rules InteractionRules) {
	s.rules = rules
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func normalize(r *Record) error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(r.Dosage) == "" {
		r.Dosage = "N/A"
	}
	return nil
}

// Add stores a single record. A record without a description is enriched
// from the drug database first.
func (s *Service) Add(ctx context.Context, r *Record) error {
	if err := normalize(r); err != nil {
		return err
	}
	if r.Description == "" && s.enricher != nil {
		enriched := s.enricher.BuildRecord(ctx, r.Name, "", r.Dosage)
		r.Description = enriched.Description
		if r.Cautions == nil {
			r.Cautions = enriched.Cautions
		}
		if r.SideEffects == nil {
			r.SideEffects = enriched.SideEffects
		}
		if r.Interactions == nil {
			r.Interactions = enriched.Interactions
		}
	}
	return s.repo.Create(ctx, r)
}

// AddBatch appends records whose name is not already in the collection and
// returns the ones actually stored, in input order. Names repeated within the
// batch are kept once.
func (s *Service) AddBatch(ctx context.Context, records []Record) ([]Record, error) {
	added := []Record{}
	for i := range records {
		rec := records[i]
		if err := normalize(&rec); err != nil {
			s.logger.Warn().Int("index", i).Msg("skipping medication without a name")
			continue
		}
		if err := s.repo.Create(ctx, &rec); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return added, fmt.Errorf("add %s: %w", rec.Name, err)
		}
		added = append(added, rec)
	}
	return added, nil
}

// Update replaces a stored record, keeping its id.
func (s *Service) Update(ctx context.Context, r *Record) error {
	if err := normalize(r); err != nil {
		return err
	}
	return s.repo.Update(ctx, r)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ReplaceAll swaps the whole collection, as done after a backend refresh.
func (s *Service) ReplaceAll(ctx context.Context, records []Record) error {
	return s.repo.ReplaceAll(ctx, records)
}

// Interactions checks the stored collection together with candidates that
// are about to be added.
func (s *Service) Interactions(ctx context.Context, candidates []Record) ([]Warning, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return CheckInteractions(existing, candidates, s.rules), nil
}

// Alternatives looks up alternatives for a stored medication.
func (s *Service) Alternatives(ctx context.Context, id string) ([]Alternative, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.alternatives == nil {
		return []Alternative{}, nil
	}
	found, err := s.alternatives.FindAlternatives(ctx, []string{rec.Name})
	if err != nil {
		return nil, fmt.Errorf("find alternatives for %s: %w", rec.Name, err)
	}
	return s.enricher.DecorateAlternatives(found[strings.ToLower(rec.Name)]), nil
}
