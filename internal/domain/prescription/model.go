package prescription

import (
	"encoding/json"
	"time"
)

// StatusAnalyzed is the status of a prescription whose text has been structured.
const StatusAnalyzed = "Analyzed"

// DisplayDateLayout renders prescription dates as "March 10, 2024".
const DisplayDateLayout = "January 2, 2006"

// Prescription is one uploaded and analysed prescription document.
type Prescription struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Date               string          `json:"date"`
	Doctor             string          `json:"doctor"`
	Status             string          `json:"status"`
	StructuredText     string          `json:"structured_text"`
	GenericPredictions json.RawMessage `json:"generic_predictions,omitempty"`
	Medications        []string        `json:"medications"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Analysis is what the analyzer backend returns for an uploaded document.
type Analysis struct {
	Filename           string          `json:"filename"`
	ExtractedText      string          `json:"extracted_text,omitempty"`
	StructuredText     string          `json:"structured_text"`
	GenericPredictions json.RawMessage `json:"generic_predictions,omitempty"`
	Alternatives       json.RawMessage `json:"alternatives,omitempty"`
}

// DocMedication is a medication line of the emergency document.
type DocMedication struct {
	Name   string `json:"n"`
	Dosage string `json:"d"`
	Date   string `json:"date"`
}

// DocPrescription is a prescription entry of the emergency document.
type DocPrescription struct {
	Date           string `json:"date"`
	Doctor         string `json:"doctor"`
	StructuredText string `json:"structured_text"`
}

// EmergencyDoc is the payload sent to the document generator.
type EmergencyDoc struct {
	Patient       PatientInfo       `json:"patient"`
	Medications   []DocMedication   `json:"medications"`
	Prescriptions []DocPrescription `json:"prescriptions"`
	Timestamp     string            `json:"timestamp"`
}

// Generated is AI or locally generated text, tagged with where it came from.
type Generated struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

const (
	SourceBackend = "backend"
	SourceLocal   = "local"
)
