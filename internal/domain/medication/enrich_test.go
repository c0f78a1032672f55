package medication

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type fakeLookup struct {
	ids   map[string]string
	err   error
	calls []string
}

func (f *fakeLookup) LookupRxCUI(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", f.err
	}
	return f.ids[name], nil
}

func newTestEnricher(lookup DrugLookup) *Enricher {
	return NewEnricher(lookup, rand.New(rand.NewSource(42)), zerolog.Nop())
}

func TestEnrich_Found(t *testing.T) {
	e := newTestEnricher(&fakeLookup{ids: map[string]string{"Metformin": "6809"}})
	info := e.Enrich(context.Background(), "Metformin")
	if !info.Found {
		t.Error("expected Found")
	}
	if info.Description != "Metformin is a medication used as prescribed by your doctor." {
		t.Errorf("unexpected description: %q", info.Description)
	}
}

func TestEnrich_NotFoundAndError(t *testing.T) {
	for name, lookup := range map[string]*fakeLookup{
		"no id":        {ids: map[string]string{}},
		"lookup error": {err: errors.New("network down")},
	} {
		t.Run(name, func(t *testing.T) {
			info := newTestEnricher(lookup).Enrich(context.Background(), "Foo")
			if info.Found {
				t.Error("expected not Found")
			}
			if info.Description != "Foo is a medication used as prescribed (not found in RxNorm)." {
				t.Errorf("unexpected description: %q", info.Description)
			}
		})
	}
}

func TestBuildRecord_PrefersComposition(t *testing.T) {
	lookup := &fakeLookup{ids: map[string]string{"Paracetamol": "161"}}
	e := newTestEnricher(lookup)

	rec := e.BuildRecord(context.Background(), "Crocin", "Paracetamol", "")
	if rec.Name != "Paracetamol" {
		t.Errorf("expected composition to win, got %q", rec.Name)
	}
	if rec.Dosage != "N/A" {
		t.Errorf("expected default dosage, got %q", rec.Dosage)
	}
	if len(lookup.calls) != 1 || lookup.calls[0] != "Paracetamol" {
		t.Errorf("expected a single composition lookup, got %v", lookup.calls)
	}
}

func TestBuildRecord_FallsBackToName(t *testing.T) {
	lookup := &fakeLookup{ids: map[string]string{"Crocin": "1"}}
	rec := newTestEnricher(lookup).BuildRecord(context.Background(), "Crocin", "Unknownium", "500mg")
	if rec.Name != "Crocin" {
		t.Errorf("expected name fallback, got %q", rec.Name)
	}
	if !strings.Contains(rec.Description, "by your doctor") {
		t.Errorf("unexpected description: %q", rec.Description)
	}
	if rec.Dosage != "500mg" {
		t.Errorf("expected dosage 500mg, got %q", rec.Dosage)
	}
}

func TestBuildRecord_NeitherFound(t *testing.T) {
	rec := newTestEnricher(&fakeLookup{}).BuildRecord(context.Background(), "Crocin", "Unknownium", "1 tab")
	if rec.Name != "Crocin" {
		t.Errorf("expected original name, got %q", rec.Name)
	}
	if !strings.Contains(rec.Description, "not found in RxNorm") {
		t.Errorf("unexpected description: %q", rec.Description)
	}
}

func TestPlaceholderShapes(t *testing.T) {
	e := newTestEnricher(nil)
	sawEmpty, sawSome := false, false
	for i := 0; i < 200; i++ {
		cautions := e.RandomCautions()
		if len(cautions) < 2 || len(cautions) > 3 {
			t.Fatalf("cautions length %d out of range", len(cautions))
		}
		effects := e.RandomSideEffects()
		if len(effects) < 3 || len(effects) > 5 {
			t.Fatalf("side effects length %d out of range", len(effects))
		}
		seen := map[string]bool{}
		for _, s := range effects {
			if seen[s] {
				t.Fatalf("duplicate side effect %q", s)
			}
			seen[s] = true
		}
		interactions := e.RandomInteractions()
		if interactions == nil {
			t.Fatal("interactions must not be nil")
		}
		switch len(interactions) {
		case 0:
			sawEmpty = true
		case 1, 2:
			sawSome = true
			for _, in := range interactions {
				if !in.Severity.Valid() {
					t.Fatalf("invalid severity %q", in.Severity)
				}
			}
		default:
			t.Fatalf("interactions length %d out of range", len(interactions))
		}
	}
	if !sawEmpty || !sawSome {
		t.Errorf("expected both empty and non-empty interaction lists over 200 draws")
	}
}

func TestIsLikelyGeneric(t *testing.T) {
	tests := map[string]bool{
		"Metformin Hydrochloride": true,
		"Generic Ibuprofen":       true,
		"Naproxen sodium":         true,
		"Glucophage":              false,
		"":                        false,
	}
	for name, want := range tests {
		if got := IsLikelyGeneric(name); got != want {
			t.Errorf("IsLikelyGeneric(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDecorateAlternatives(t *testing.T) {
	alts := newTestEnricher(nil).DecorateAlternatives([]string{"Metformin HCL", "Glucophage"})
	if len(alts) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(alts))
	}
	if !alts[0].IsGeneric || alts[0].Advantages[0] != "Lower cost" {
		t.Errorf("unexpected generic decoration: %+v", alts[0])
	}
	if alts[1].IsGeneric || alts[1].Advantages[0] != "Similar efficacy" {
		t.Errorf("unexpected brand decoration: %+v", alts[1])
	}
	if alts[1].CostComparison.Label == "" {
		t.Error("expected a cost comparison")
	}
}
