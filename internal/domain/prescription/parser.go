package prescription

import (
	"regexp"
	"strings"
)

const notAvailable = "N/A"

// Entry is one medication line of the markdown medication section.
type Entry struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// ParseMedications extracts the "- Medicine Name: X, Dosage: Y, Frequency: Z"
// lines that follow a "### Medications" or "## Medications" header. The section
// ends at the next line starting with '#' or at end of input. Missing sub-fields
// default to "N/A"; entries are never dropped for missing fields.
func ParseMedications(structuredText string) []Entry {
	entries := []Entry{}
	if structuredText == "" {
		return entries
	}

	inSection := false
	for _, line := range strings.Split(structuredText, "\n") {
		if strings.HasPrefix(line, "### Medications") || strings.HasPrefix(line, "## Medications") {
			inSection = true
			continue
		}
		if inSection && strings.HasPrefix(line, "- Medicine Name:") {
			entries = append(entries, parseEntryLine(line))
		}
		if inSection && strings.HasPrefix(line, "#") {
			inSection = false
		}
	}
	return entries
}

func parseEntryLine(line string) Entry {
	line = strings.TrimRight(line, " \t\r*")
	parts := strings.Split(line, ", ")

	e := Entry{
		Name:      strings.TrimSpace(strings.Replace(parts[0], "- Medicine Name:", "", 1)),
		Dosage:    notAvailable,
		Frequency: notAvailable,
	}
	if len(parts) > 1 {
		if v := strings.TrimSpace(strings.Replace(parts[1], "Dosage:", "", 1)); v != "" {
			e.Dosage = v
		}
	}
	if len(parts) > 2 {
		if v := strings.TrimSpace(strings.Replace(parts[2], "Frequency:", "", 1)); v != "" {
			e.Frequency = v
		}
	}
	return e
}

// AnalyzerEntry is one bullet of the bolded "**Medications:**" section.
type AnalyzerEntry struct {
	Name        string `json:"name"`
	Composition string `json:"composition,omitempty"`
	Dosage      string `json:"dosage"`
}

var (
	analyzerSectionRe = regexp.MustCompile(`(?i)\*\*Medications:\*\*\n([\s\S]*?)(?:\n\n\*\*Special Instructions:\*\*|\n\nNote:|$)`)
	asteriskRunRe     = regexp.MustCompile(`\*+\s*`)
	analyzerEntryRe   = regexp.MustCompile(`^\s*(.+?)(?:\s*\(([^)]+)\))?:\s*([^:]+)$`)
)

// ParseAnalyzerMedications extracts "* **Name (Composition): Dosage**" bullets
// from the analyzer's bolded medication section. Entries that do not match the
// expected structure are reported to warn (if non-nil) and skipped.
func ParseAnalyzerMedications(structuredText string, warn func(entry string)) []AnalyzerEntry {
	entries := []AnalyzerEntry{}
	if structuredText == "" {
		return entries
	}
	m := analyzerSectionRe.FindStringSubmatch(structuredText)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return entries
	}

	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "* **") {
			continue
		}
		cleaned := strings.TrimSpace(asteriskRunRe.ReplaceAllString(line, ""))
		if cleaned == "" {
			continue
		}
		parts := analyzerEntryRe.FindStringSubmatch(cleaned)
		if parts == nil {
			if warn != nil {
				warn(cleaned)
			}
			continue
		}
		entries = append(entries, AnalyzerEntry{
			Name:        strings.TrimSpace(parts[1]),
			Composition: strings.TrimSpace(parts[2]),
			Dosage:      strings.TrimSpace(parts[3]),
		})
	}
	return entries
}

// PatientInfo is the patient block used for the emergency document.
type PatientInfo struct {
	Name             string `json:"n"`
	Gender           string `json:"g"`
	EmergencyContact string `json:"e"`
}

var (
	doctorNameRe       = regexp.MustCompile(`\*\*Doctor Information:\*\*[\s\S]*?Name: ([^\n]*)`)
	patientNameRe      = regexp.MustCompile(`\*\*Patient Information:\*\*[\s\S]*?Name: ([^\n]*)`)
	anyNameRe          = regexp.MustCompile(`Name: ([^\n]*)`)
	genderRe           = regexp.MustCompile(`Gender: ([^\n]*)`)
	emergencyContactRe = regexp.MustCompile(`Emergency Contact: ([^\n]*)`)
	reviewDateRe       = regexp.MustCompile(`Next Review Date: ([^\n]*)`)
)

func firstGroup(re *regexp.Regexp, text, fallback string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return fallback
}

// ExtractDoctorName returns the name under "**Doctor Information:**", or "Unknown".
func ExtractDoctorName(structuredText string) string {
	return firstGroup(doctorNameRe, structuredText, "Unknown")
}

// ExtractPatientName returns the name under "**Patient Information:**", or fallback.
func ExtractPatientName(structuredText, fallback string) string {
	return firstGroup(patientNameRe, structuredText, fallback)
}

// ExtractReviewDate returns the "Next Review Date:" value, or fallback.
func ExtractReviewDate(structuredText, fallback string) string {
	return firstGroup(reviewDateRe, structuredText, fallback)
}

// ExtractGender returns the "Gender:" value, or fallback.
func ExtractGender(structuredText, fallback string) string {
	return firstGroup(genderRe, structuredText, fallback)
}

// ExtractPatientInfo returns the first Name/Gender/Emergency Contact values.
func ExtractPatientInfo(structuredText string) PatientInfo {
	if structuredText == "" {
		return PatientInfo{Name: "Unknown", Gender: "U", EmergencyContact: "None"}
	}
	return PatientInfo{
		Name:             firstGroup(anyNameRe, structuredText, "Unknown"),
		Gender:           firstGroup(genderRe, structuredText, "U"),
		EmergencyContact: firstGroup(emergencyContactRe, structuredText, "None"),
	}
}

// Section is a titled block of structured text with markdown emphasis removed.
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

var (
	sectionSplitRe = regexp.MustCompile(`\n\n\*\*[A-Z][^\n]*:\*\*`)
	sectionTitleRe = regexp.MustCompile(`\*\*(.+?):\*\*`)
)

// ExtractSections splits structured text on blank-line-separated
// "**Title:**" headers.
func ExtractSections(structuredText string) []Section {
	sections := []Section{}
	for _, raw := range splitBeforeHeaders(structuredText) {
		var lines []string
		for _, l := range strings.Split(raw, "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}
		title := strings.TrimSpace(lines[0])
		if m := sectionTitleRe.FindStringSubmatch(lines[0]); m != nil {
			title = strings.TrimSpace(m[1])
		}
		s := Section{Title: title, Lines: []string{}}
		for _, l := range lines[1:] {
			if clean := strings.TrimSpace(asteriskRunRe.ReplaceAllString(l, "")); clean != "" {
				s.Lines = append(s.Lines, clean)
			}
		}
		sections = append(sections, s)
	}
	return sections
}

// splitBeforeHeaders emulates a split on the lookahead "\n\n(?=**Title:**)",
// which RE2 cannot express directly.
func splitBeforeHeaders(text string) []string {
	var out []string
	start := 0
	for _, loc := range sectionSplitRe.FindAllStringIndex(text, -1) {
		out = append(out, text[start:loc[0]])
		start = loc[0] + 2
	}
	out = append(out, text[start:])
	return out
}
