package medication

import "time"

// Severity grades an interaction.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether s is one of high, medium or low.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Interaction is a placeholder interaction attached to a record at enrichment time.
type Interaction struct {
	DrugName string   `json:"drug_name"`
	Severity Severity `json:"severity"`
	Effect   string   `json:"effect"`
}

// Record is a medication in the user's collection. Name is the join key used by
// reminders.
type Record struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Dosage       string        `json:"dosage"`
	Frequency    string        `json:"frequency,omitempty"`
	Description  string        `json:"description"`
	Cautions     []string      `json:"cautions,omitempty"`
	SideEffects  []string      `json:"side_effects,omitempty"`
	Interactions []Interaction `json:"interactions,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Info is the result of a drug-database lookup.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Found       bool   `json:"found"`
}

// Warning is one directed interaction hit from CheckInteractions.
type Warning struct {
	Med1    string `json:"med1"`
	Med2    string `json:"med2"`
	Warning string `json:"warning"`
}
