package backend

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/prescription"
	"github.com/kanishkhaa/smartrx/internal/domain/profile"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
)

// apiError is the {"error": "..."} envelope the backend may send even with a
// 2xx status.
type apiError struct {
	Error string `json:"error,omitempty"`
}

type medicationDTO struct {
	ID          httpclient.ID   `json:"id"`
	Name        string          `json:"name"`
	Dosage      string          `json:"dosage,omitempty"`
	Description string          `json:"description"`
	Caution     json.RawMessage `json:"caution,omitempty"`
	Cautions    json.RawMessage `json:"cautions,omitempty"`
	SideEffects json.RawMessage `json:"sideEffects,omitempty"`
}

// stringList accepts either a JSON string or an array of strings.
func stringList(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return []string{s}
	}
	return nil
}

func (d medicationDTO) toRecord() medication.Record {
	cautions := stringList(d.Cautions)
	if cautions == nil {
		cautions = stringList(d.Caution)
	}
	dosage := d.Dosage
	if dosage == "" {
		dosage = "N/A"
	}
	return medication.Record{
		ID:          d.ID.String(),
		Name:        d.Name,
		Dosage:      dosage,
		Description: d.Description,
		Cautions:    cautions,
		SideEffects: stringList(d.SideEffects),
	}
}

type reminderDTO struct {
	ID          httpclient.ID `json:"id"`
	Medication  string        `json:"medication"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Recurring   string        `json:"recurring"`
	Priority    string        `json:"priority,omitempty"`
	Completed   bool          `json:"completed"`
}

// kindFromTitle recovers the reminder kind the backend does not store.
func kindFromTitle(title string) reminder.Kind {
	switch {
	case strings.HasPrefix(title, "Refill"):
		return reminder.KindRefill
	case strings.HasPrefix(title, "Take"):
		return reminder.KindDose
	}
	return reminder.KindManual
}

func (d reminderDTO) toReminder() reminder.Reminder {
	kind := kindFromTitle(d.Title)
	priority := reminder.Priority(d.Priority)
	if !priority.Valid() {
		priority = reminder.PriorityMedium
	}
	recurring := reminder.Recurring(d.Recurring)
	if !recurring.Valid() {
		recurring = reminder.RecurringNone
	}
	return reminder.Reminder{
		ID:            d.ID.String(),
		Medication:    d.Medication,
		Title:         d.Title,
		Kind:          kind,
		Description:   d.Description,
		Date:          d.Date,
		Time:          d.Time,
		Recurring:     recurring,
		Priority:      priority,
		Completed:     d.Completed,
		TakenHistory:  []time.Time{},
		AutoGenerated: kind != reminder.KindManual,
	}
}

type prescriptionDTO struct {
	ID                 httpclient.ID   `json:"id"`
	Filename           string          `json:"filename"`
	Date               string          `json:"date"`
	StructuredText     string          `json:"structured_text"`
	GenericPredictions json.RawMessage `json:"generic_predictions,omitempty"`
}

// predictionNames returns the medication names keyed in generic_predictions,
// sorted.
func predictionNames(raw json.RawMessage) []string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return []string{}
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (d prescriptionDTO) toPrescription() prescription.Prescription {
	p := prescription.Prescription{
		ID:                 d.ID.String(),
		Name:               d.Filename,
		Date:               d.Date,
		Doctor:             prescription.ExtractDoctorName(d.StructuredText),
		Status:             prescription.StatusAnalyzed,
		StructuredText:     d.StructuredText,
		GenericPredictions: d.GenericPredictions,
		Medications:        predictionNames(d.GenericPredictions),
	}
	if t, err := time.Parse("2006-01-02", d.Date); err == nil {
		p.CreatedAt = t
		p.Date = t.Format(prescription.DisplayDateLayout)
	}
	return p
}

type uploadResponse struct {
	apiError
	Filename           string          `json:"filename"`
	ExtractedText      string          `json:"extracted_text"`
	StructuredText     string          `json:"structured_text"`
	GenericPredictions json.RawMessage `json:"generic_predictions"`
	Alternatives       json.RawMessage `json:"alternatives"`
}

type generateRequest struct {
	StructuredText string              `json:"structured_text"`
	Medications    []medication.Record `json:"medications"`
}

type summaryResponse struct {
	apiError
	Summary string `json:"summary"`
}

type tipsResponse struct {
	apiError
	Tips string `json:"tips"`
}

type docResponse struct {
	apiError
	URL string `json:"url"`
}

type alternativesRequest struct {
	Drugs []string `json:"drugs"`
}

type alternativesResponse struct {
	apiError
	Alternatives map[string][]string `json:"alternatives"`
}

type pharmacyDTO struct {
	ID      httpclient.ID `json:"id"`
	Name    string        `json:"name"`
	Address string        `json:"address"`
}

// profileDTO is the camelCase profile shape the backend stores.
type profileDTO struct {
	FullName               string `json:"fullName"`
	DOB                    string `json:"dob"`
	Gender                 string `json:"gender"`
	MedicalConditions      string `json:"medicalConditions"`
	Medications            string `json:"medications"`
	Allergies              string `json:"allergies"`
	EmergencyContactName   string `json:"emergencyContactName"`
	EmergencyContactNumber string `json:"emergencyContactNumber"`
	PreferredPharmacy      string `json:"preferredPharmacy"`
}

func fromProfile(p profile.Profile) profileDTO {
	return profileDTO(p)
}

func (d profileDTO) toProfile() profile.Profile {
	return profile.Profile(d)
}
