package prescription

import (
	"strconv"
	"strings"
	"time"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
)

var superscripts = []string{"¹", "²", "³", "⁴", "⁵", "⁶", "⁷", "⁸", "⁹", "¹⁰"}

// LocalSummary builds the plain-text summary used when the AI backend is
// unavailable.
func LocalSummary(structuredText string, meds []medication.Record, today time.Time) string {
	if len(meds) == 0 {
		return "No medication data available to summarize."
	}

	patient := ExtractPatientName(structuredText, "Patient")
	doctor := firstGroup(doctorNameRe, structuredText, "Unknown Doctor")
	date := ExtractReviewDate(structuredText, today.Format(DisplayDateLayout))
	gender := ""
	if g := ExtractGender(structuredText, ""); g != "" {
		gender = "(" + string([]rune(g)[0]) + ")"
	}

	var b strings.Builder
	b.WriteString("Patient: " + patient + " " + gender + "\n")
	b.WriteString("Date: " + date + "\n")
	b.WriteString("Physician: Dr. " + doctor + "\n")
	b.WriteString("Medications:\n")

	hasInteractions := false
	for i, m := range meds {
		num := strconv.Itoa(i + 1)
		if i < len(superscripts) {
			num = superscripts[i]
		}
		dosage := m.Dosage
		if dosage == "" {
			dosage = "As prescribed"
		}
		b.WriteString("  " + m.Name + num + ": " + dosage + "\n")
		if len(m.Interactions) > 0 {
			hasInteractions = true
		}
	}
	if hasInteractions {
		b.WriteString("Alert: Potential drug interactions detected - consult your doctor\n")
	}
	b.WriteString("Tip: Follow your doctor's instructions carefully")
	return b.String()
}

// LocalWellnessTips builds the fallback tips list.
func LocalWellnessTips(meds []medication.Record) string {
	if len(meds) == 0 {
		return "No medication data available to generate tips."
	}

	var b strings.Builder
	b.WriteString("Wellness Tips\n\n")
	b.WriteString("• Take medications exactly as prescribed\n")
	b.WriteString("• Stay hydrated throughout the day\n")
	b.WriteString("• Maintain a balanced diet\n")
	for _, m := range meds {
		for _, se := range m.SideEffects {
			if se == "Drowsiness" {
				b.WriteString("• Avoid driving if " + m.Name + " causes drowsiness\n")
				break
			}
		}
	}
	return b.String()
}
