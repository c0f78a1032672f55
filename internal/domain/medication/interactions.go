package medication

import "fmt"

// InteractionRules maps a drug name to the drug names it is known to interact
// with. The table is directional: an entry for A listing B does not imply an
// entry for B listing A.
type InteractionRules map[string][]string

// DefaultInteractionRules is the built-in table. Warfarin and Cimetidine are
// targets only.
func DefaultInteractionRules() InteractionRules {
	return InteractionRules{
		"Aspirin":   {"Ibuprofen", "Warfarin"},
		"Metformin": {"Cimetidine"},
		"Ibuprofen": {"Aspirin"},
	}
}

func (r InteractionRules) lists(a, b string) bool {
	for _, target := range r[a] {
		if target == b {
			return true
		}
	}
	return false
}

// CheckInteractions scans every ordered pair of existing ++ added with distinct
// names and reports a warning whenever the first drug's rule lists the second.
func CheckInteractions(existing, added []Record, rules InteractionRules) []Warning {
	all := make([]Record, 0, len(existing)+len(added))
	all = append(all, existing...)
	all = append(all, added...)

	warnings := []Warning{}
	for _, a := range all {
		for _, b := range all {
			if a.Name == b.Name || !rules.lists(a.Name, b.Name) {
				continue
			}
			warnings = append(warnings, Warning{
				Med1:    a.Name,
				Med2:    b.Name,
				Warning: fmt.Sprintf("Potential interaction between %s and %s", a.Name, b.Name),
			})
		}
	}
	return warnings
}
