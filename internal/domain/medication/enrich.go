package medication

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DrugLookup resolves a drug name to a canonical identifier (RxCUI).
type DrugLookup interface {
	LookupRxCUI(ctx context.Context, name string) (string, error)
}

// Enricher layers drug-database descriptions and placeholder safety data onto
// parsed medications.
type Enricher struct {
	lookup DrugLookup
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEnricher creates an Enricher. rng may be nil, in which case a time-seeded
// source is used.
func NewEnricher(lookup DrugLookup, rng *rand.Rand, logger zerolog.Logger) *Enricher {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Enricher{lookup: lookup, rng: rng, logger: logger}
}

const notFoundMarker = "not found in RxNorm"

// Enrich looks the name up and never fails: a lookup error or a missing id
// yields a description flagged as not found.
func (e *Enricher) Enrich(ctx context.Context, name string) Info {
	if e.lookup != nil {
		id, err := e.lookup.LookupRxCUI(ctx, name)
		if err == nil && id != "" {
			return Info{
				Name:        name,
				Description: fmt.Sprintf("%s is a medication used as prescribed by your doctor.", name),
				Found:       true,
			}
		}
		if err == nil {
			err = fmt.Errorf("no RxCUI found for %s", name)
		}
		e.logger.Warn().Err(err).Str("drug", name).Msg("drug lookup failed")
	}
	return Info{
		Name:        name,
		Description: fmt.Sprintf("%s is a medication used as prescribed (%s).", name, notFoundMarker),
	}
}

// BuildRecord enriches one parsed entry. The composition is tried before the
// brand name; the first candidate found in the drug database becomes the record
// name.
func (e *Enricher) BuildRecord(ctx context.Context, name, composition, dosage string) Record {
	candidates := []string{name}
	if composition != "" {
		candidates = []string{composition, name}
	}

	var info Info
	for _, candidate := range candidates {
		info = e.Enrich(ctx, candidate)
		if !strings.Contains(info.Description, notFoundMarker) {
			name = candidate
			break
		}
	}

	if strings.TrimSpace(dosage) == "" {
		dosage = "N/A"
	}
	return Record{
		Name:         name,
		Dosage:       dosage,
		Description:  info.Description,
		Cautions:     e.RandomCautions(),
		SideEffects:  e.RandomSideEffects(),
		Interactions: e.RandomInteractions(),
	}
}

var (
	cautionPool = []string{
		"Do not operate heavy machinery",
		"Take with food",
		"Avoid alcohol",
		"May cause drowsiness",
		"Notify doctor if symptoms worsen",
		"Not for liver impairment",
		"Caution with kidney disease",
	}
	sideEffectPool = []string{
		"Nausea", "Headache", "Dizziness", "Drowsiness", "Dry mouth",
		"Upset stomach", "Fatigue", "Insomnia", "Rash", "Constipation",
		"Diarrhea", "Loss of appetite",
	}
	interactionPool = []Interaction{
		{DrugName: "Warfarin", Severity: SeverityHigh, Effect: "May increase bleeding risk"},
		{DrugName: "Ibuprofen", Severity: SeverityMedium, Effect: "May reduce effectiveness"},
		{DrugName: "Antacids", Severity: SeverityLow, Effect: "May decrease absorption"},
		{DrugName: "Aspirin", Severity: SeverityMedium, Effect: "Increased stomach bleeding risk"},
		{DrugName: "Digoxin", Severity: SeverityHigh, Effect: "May increase digoxin levels"},
	}
)

// RandomCautions picks 2 or 3 distinct cautions.
func (e *Enricher) RandomCautions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sample(e.rng, cautionPool, 2+e.rng.Intn(2))
}

// RandomSideEffects picks 3 to 5 distinct side effects.
func (e *Enricher) RandomSideEffects() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return sample(e.rng, sideEffectPool, 3+e.rng.Intn(3))
}

// RandomInteractions returns 1 or 2 interactions 70% of the time, otherwise none.
func (e *Enricher) RandomInteractions() []Interaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rng.Float64() <= 0.3 {
		return []Interaction{}
	}
	return sample(e.rng, interactionPool, 1+e.rng.Intn(2))
}

func sample[T any](rng *rand.Rand, pool []T, n int) []T {
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}
