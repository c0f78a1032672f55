package prescription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
	"github.com/kanishkhaa/smartrx/internal/platform/clock"
	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
)

var (
	// ErrBackend wraps failures of the analyzer backend.
	ErrBackend = errors.New("analyzer backend failed")
	// ErrNoMedications is returned when a document or prescription has no
	// medications to work with.
	ErrNoMedications = errors.New("no medications found in the prescription")
)

// Analyzer is the document-analysis backend.
type Analyzer interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*Analysis, error)
	Summary(ctx context.Context, structuredText string, meds []medication.Record) (string, error)
	WellnessTips(ctx context.Context, structuredText string, meds []medication.Record) (string, error)
	EmergencyDoc(ctx context.Context, doc EmergencyDoc) (string, error)
	DeletePrescription(ctx context.Context, id string) error
}

// RecordBuilder turns a parsed entry into an enriched medication record.
type RecordBuilder interface {
	BuildRecord(ctx context.Context, name, composition, dosage string) medication.Record
}

// MedicationStore is the part of the medication collection the upload
// pipeline writes to.
type MedicationStore interface {
	List(ctx context.Context) ([]medication.Record, error)
	AddBatch(ctx context.Context, records []medication.Record) ([]medication.Record, error)
	Interactions(ctx context.Context, candidates []medication.Record) ([]medication.Warning, error)
}

// ReminderStore appends reminders derived from new medications.
type ReminderStore interface {
	AppendDerived(ctx context.Context, meds []medication.Record) ([]reminder.Reminder, error)
}

// RefreshFunc reloads the local collections from the backend.
type RefreshFunc func(ctx context.Context) error

// maxEnrichers bounds concurrent drug-database lookups per upload.
const maxEnrichers = 4

// UploadResult is everything one upload produced.
type UploadResult struct {
	Prescription Prescription         `json:"prescription"`
	Medications  []medication.Record  `json:"medications"`
	Added        []medication.Record  `json:"added"`
	Reminders    []reminder.Reminder  `json:"reminders"`
	Warnings     []medication.Warning `json:"warnings"`
	Skipped      []string             `json:"skipped"`
}

// ParseResult is the offline analysis of a structured text.
type ParseResult struct {
	Doctor      string          `json:"doctor"`
	Patient     PatientInfo     `json:"patient"`
	Medications []AnalyzerEntry `json:"medications"`
	Entries     []Entry         `json:"entries"`
	Sections    []Section       `json:"sections"`
	Skipped     []string        `json:"skipped"`
}

type Service struct {
	repo      Repository
	analyzer  Analyzer
	builder   RecordBuilder
	meds      MedicationStore
	reminders ReminderStore
	refresh   RefreshFunc
	clock     clock.Clock
	logger    zerolog.Logger
}

func NewService(repo Repository, analyzer Analyzer, builder RecordBuilder, meds MedicationStore,
	reminders ReminderStore, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		repo:      repo,
		analyzer:  analyzer,
		builder:   builder,
		meds:      meds,
		reminders: reminders,
		clock:     clk,
		logger:    logger,
	}
}

// SetRefresher installs the reload run after a prescription is deleted.
func (s *Service) SetRefresher(fn RefreshFunc) {
	s.refresh = fn
}

func (s *Service) List(ctx context.Context) ([]Prescription, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Prescription, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ReplaceAll(ctx context.Context, items []Prescription) error {
	return s.repo.ReplaceAll(ctx, items)
}

// Parse analyses structured text without touching any collection.
func (s *Service) Parse(structuredText string) ParseResult {
	res := ParseResult{Skipped: []string{}}
	res.Medications = ParseAnalyzerMedications(structuredText, func(entry string) {
		res.Skipped = append(res.Skipped, entry)
	})
	res.Entries = ParseMedications(structuredText)
	res.Sections = ExtractSections(structuredText)
	res.Patient = ExtractPatientInfo(structuredText)
	res.Doctor = ExtractDoctorName(structuredText)
	return res
}

// Upload sends a document to the analyzer and folds the result into the
// local collections: the parsed medications are checked for interactions with
// the stored ones, new medications are appended, dose and refill reminders
// are derived for every parsed medication, and the prescription is recorded.
func (s *Service) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	analysis, err := s.analyzer.Upload(ctx, filename, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	res := &UploadResult{Skipped: []string{}}
	entries := ParseAnalyzerMedications(analysis.StructuredText, func(entry string) {
		s.logger.Warn().Str("entry", entry).Msg("skipping unparseable medication entry")
		res.Skipped = append(res.Skipped, entry)
	})
	if len(entries) == 0 {
		return nil, ErrNoMedications
	}

	records, err := s.buildRecords(ctx, entries)
	if err != nil {
		return nil, err
	}
	res.Medications = records

	if res.Warnings, err = s.meds.Interactions(ctx, records); err != nil {
		return nil, fmt.Errorf("check interactions: %w", err)
	}
	if res.Added, err = s.meds.AddBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("add medications: %w", err)
	}
	if res.Reminders, err = s.reminders.AppendDerived(ctx, records); err != nil {
		return nil, fmt.Errorf("derive reminders: %w", err)
	}

	name := analysis.Filename
	if name == "" {
		name = filename
	}
	now := s.clock.Now()
	p := Prescription{
		ID:                 uuid.NewString(),
		Name:               name,
		Date:               now.Format(DisplayDateLayout),
		Doctor:             ExtractDoctorName(analysis.StructuredText),
		Status:             StatusAnalyzed,
		StructuredText:     analysis.StructuredText,
		GenericPredictions: analysis.GenericPredictions,
		Medications:        make([]string, 0, len(records)),
		CreatedAt:          now.UTC(),
	}
	for _, r := range records {
		p.Medications = append(p.Medications, r.Name)
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("record prescription: %w", err)
	}
	res.Prescription = p

	s.logger.Info().
		Str("prescription_id", p.ID).
		Int("medications", len(records)).
		Int("added", len(res.Added)).
		Int("reminders", len(res.Reminders)).
		Int("warnings", len(res.Warnings)).
		Msg("prescription analyzed")
	return res, nil
}

// buildRecords enriches the entries concurrently, keeping input order.
func (s *Service) buildRecords(ctx context.Context, entries []AnalyzerEntry) ([]medication.Record, error) {
	records := make([]medication.Record, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxEnrichers)
	for i, e := range entries {
		g.Go(func() error {
			records[i] = s.builder.BuildRecord(gctx, e.Name, e.Composition, e.Dosage)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a prescription from the backend and the local history, then
// reloads medications and reminders. Prescriptions the backend has never seen
// are removed locally only.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if s.analyzer != nil {
		err := s.analyzer.DeletePrescription(ctx, id)
		switch {
		case httpclient.IsStatus(err, http.StatusNotFound):
			s.logger.Debug().Str("prescription_id", id).Msg("prescription unknown to backend, deleting locally")
		case err != nil:
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.refresh != nil {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Str("prescription_id", id).Msg("refresh after delete failed")
		}
	}
	return nil
}

// medicationsOf returns the stored records named by the prescription.
func (s *Service) medicationsOf(ctx context.Context, p *Prescription) ([]medication.Record, error) {
	all, err := s.meds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	want := make(map[string]bool, len(p.Medications))
	for _, n := range p.Medications {
		want[n] = true
	}
	out := []medication.Record{}
	for _, m := range all {
		if want[m.Name] {
			out = append(out, m)
		}
	}
	return out, nil
}

// Summary asks the backend for an AI summary of the prescription and falls
// back to a locally generated one.
func (s *Service) Summary(ctx context.Context, id string) (*Generated, error) {
	p, meds, err := s.loadWithMedications(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.analyzer != nil {
		text, err := s.analyzer.Summary(ctx, p.StructuredText, meds)
		if err == nil && text != "" {
			return &Generated{Text: text, Source: SourceBackend}, nil
		}
		s.logger.Warn().Err(err).Str("prescription_id", id).Msg("summary generation failed, using local summary")
	}
	return &Generated{Text: LocalSummary(p.StructuredText, meds, s.clock.Now()), Source: SourceLocal}, nil
}

// Tips is Summary for wellness tips.
func (s *Service) Tips(ctx context.Context, id string) (*Generated, error) {
	p, meds, err := s.loadWithMedications(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.analyzer != nil {
		text, err := s.analyzer.WellnessTips(ctx, p.StructuredText, meds)
		if err == nil && text != "" {
			return &Generated{Text: text, Source: SourceBackend}, nil
		}
		s.logger.Warn().Err(err).Str("prescription_id", id).Msg("tips generation failed, using local tips")
	}
	return &Generated{Text: LocalWellnessTips(meds), Source: SourceLocal}, nil
}

func (s *Service) loadWithMedications(ctx context.Context, id string) (*Prescription, []medication.Record, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(p.StructuredText) == "" {
		return nil, nil, ErrNoMedications
	}
	meds, err := s.medicationsOf(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	if len(meds) == 0 {
		return nil, nil, ErrNoMedications
	}
	return p, meds, nil
}

// BuildEmergencyDoc assembles the emergency document payload for a
// prescription. An empty id selects the most recent prescription.
func (s *Service) BuildEmergencyDoc(ctx context.Context, id string) (*EmergencyDoc, error) {
	var p *Prescription
	if id == "" {
		all, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, ErrNotFound
		}
		p = &all[len(all)-1]
	} else {
		var err error
		if p, err = s.repo.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	meds, err := s.medicationsOf(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	isoDate := now.Format("2006-01-02")
	doc := &EmergencyDoc{
		Patient:     ExtractPatientInfo(p.StructuredText),
		Medications: make([]DocMedication, 0, len(meds)),
		Prescriptions: []DocPrescription{{
			Date:           now.Format(DisplayDateLayout),
			Doctor:         ExtractDoctorName(p.StructuredText),
			StructuredText: p.StructuredText,
		}},
		Timestamp: isoDate,
	}
	for _, m := range meds {
		doc.Medications = append(doc.Medications, DocMedication{Name: m.Name, Dosage: m.Dosage, Date: isoDate})
	}
	return doc, nil
}

// EmergencyDoc generates the emergency document and returns its URL.
func (s *Service) EmergencyDoc(ctx context.Context, id string) (string, error) {
	doc, err := s.BuildEmergencyDoc(ctx, id)
	if err != nil {
		return "", err
	}
	if s.analyzer == nil {
		return "", fmt.Errorf("%w: no analyzer configured", ErrBackend)
	}
	url, err := s.analyzer.EmergencyDoc(ctx, *doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return url, nil
}
