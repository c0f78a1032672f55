package medication

import (
	"context"
	"strings"
)

// AlternativesSource returns alternative drug names keyed by the lower-cased
// query name.
type AlternativesSource interface {
	FindAlternatives(ctx context.Context, drugs []string) (map[string][]string, error)
}

// CostComparison is an estimated price difference against the original drug.
type CostComparison struct {
	Percentage string `json:"percentage"`
	Label      string `json:"label"`
}

// Alternative is a decorated alternative drug suggestion.
type Alternative struct {
	Name            string         `json:"name"`
	RxCUI           string         `json:"rxcui"`
	TTY             string         `json:"tty"`
	CostComparison  CostComparison `json:"cost_comparison"`
	IsGeneric       bool           `json:"is_generic"`
	Advantages      []string       `json:"advantages"`
	SideEffects     []string       `json:"side_effects"`
	InteractionRisk string         `json:"interaction_risk"`
}

var genericTerms = map[string]bool{
	"generic": true, "hydrochloride": true, "hcl": true,
	"sodium": true, "sulfate": true, "citrate": true,
}

// IsLikelyGeneric reports whether any whitespace-separated word of name is a
// salt or "generic" marker.
func IsLikelyGeneric(name string) bool {
	for _, term := range strings.Split(strings.ToLower(name), " ") {
		if genericTerms[term] {
			return true
		}
	}
	return false
}

var costOptions = []CostComparison{
	{Percentage: "25-40% less", Label: "Significantly cheaper"},
	{Percentage: "10-25% less", Label: "Moderately cheaper"},
	{Percentage: "1-10% less", Label: "Slightly cheaper"},
	{Percentage: "Similar price", Label: "Similar cost"},
}

func standardAdvantages(generic bool) []string {
	if generic {
		return []string{"Lower cost", "Same active ingredient", "Widely available"}
	}
	return []string{"Similar efficacy", "Available in multiple formulations", "May have better coverage"}
}

// DecorateAlternatives attaches generic detection, advantages and a randomly
// estimated cost comparison to each alternative name.
func (e *Enricher) DecorateAlternatives(names []string) []Alternative {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alternative, 0, len(names))
	for _, n := range names {
		generic := IsLikelyGeneric(n)
		out = append(out, Alternative{
			Name:            n,
			TTY:             "SBD",
			CostComparison:  costOptions[e.rng.Intn(len(costOptions))],
			IsGeneric:       generic,
			Advantages:      standardAdvantages(generic),
			SideEffects:     []string{"Consult doctor for side effects"},
			InteractionRisk: "Low",
		})
	}
	return out
}
