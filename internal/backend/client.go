// Package backend is the client for the prescription-analysis API. It adapts
// the API's wire shapes to the domain types and implements the backend-facing
// interfaces of the domain services.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kanishkhaa/smartrx/internal/domain/assistant"
	"github.com/kanishkhaa/smartrx/internal/domain/locator"
	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/prescription"
	"github.com/kanishkhaa/smartrx/internal/domain/profile"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
)

// Client talks to the backend. AI-backed endpoints (upload, summaries, tips,
// chat) go through a client with a longer timeout.
type Client struct {
	api *httpclient.Client
	ai  *httpclient.Client
}

// New creates a Client. ai may be nil, in which case api is used for every call.
func New(api, ai *httpclient.Client) *Client {
	if ai == nil {
		ai = api
	}
	return &Client{api: api, ai: ai}
}

var (
	_ reminder.Confirmer            = (*Client)(nil)
	_ medication.AlternativesSource = (*Client)(nil)
	_ prescription.Analyzer         = (*Client)(nil)
	_ profile.Backend               = (*Client)(nil)
	_ assistant.Backend             = (*Client)(nil)
	_ locator.PharmacySource        = (*Client)(nil)
)

func check(op string, e apiError) error {
	if e.Error != "" {
		return fmt.Errorf("%s: %s", op, e.Error)
	}
	return nil
}

// FetchPrescriptions handles GET /prescriptions.
func (c *Client) FetchPrescriptions(ctx context.Context) ([]prescription.Prescription, error) {
	var dtos []prescriptionDTO
	if err := c.api.DoJSON(ctx, http.MethodGet, "/prescriptions", nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch prescriptions: %w", err)
	}
	out := make([]prescription.Prescription, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toPrescription())
	}
	return out, nil
}

// FetchMedications handles GET /medications.
func (c *Client) FetchMedications(ctx context.Context) ([]medication.Record, error) {
	var dtos []medicationDTO
	if err := c.api.DoJSON(ctx, http.MethodGet, "/medications", nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch medications: %w", err)
	}
	out := make([]medication.Record, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toRecord())
	}
	return out, nil
}

// FetchReminders handles GET /reminders.
func (c *Client) FetchReminders(ctx context.Context) ([]reminder.Reminder, error) {
	var dtos []reminderDTO
	if err := c.api.DoJSON(ctx, http.MethodGet, "/reminders", nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch reminders: %w", err)
	}
	out := make([]reminder.Reminder, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toReminder())
	}
	return out, nil
}

// FetchProfile handles GET /profile. A response without a name is reported
// as profile.ErrNotFound.
func (c *Client) FetchProfile(ctx context.Context) (*profile.Profile, error) {
	var dto profileDTO
	if err := c.api.DoJSON(ctx, http.MethodGet, "/profile", nil, &dto); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if strings.TrimSpace(dto.FullName) == "" {
		return nil, profile.ErrNotFound
	}
	p := dto.toProfile()
	return &p, nil
}

// SaveProfile handles POST /user-profile.
func (c *Client) SaveProfile(ctx context.Context, p profile.Profile) error {
	if err := c.api.DoJSON(ctx, http.MethodPost, "/user-profile", fromProfile(p), nil); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// numericID rejects ids the backend cannot route, so they surface as 404s
// without a round trip.
func numericID(id string) error {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return &httpclient.HTTPError{StatusCode: http.StatusNotFound, Body: "non-numeric id " + id}
	}
	return nil
}

// CompleteReminder handles POST /reminders/:id/complete. Reminders created
// locally are unknown to the backend and confirm trivially.
func (c *Client) CompleteReminder(ctx context.Context, id string) error {
	if numericID(id) != nil {
		return nil
	}
	path := "/reminders/" + url.PathEscape(id) + "/complete"
	if err := c.api.DoJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("complete reminder %s: %w", id, err)
	}
	return nil
}

// DeletePrescription handles DELETE /prescriptions/:id.
func (c *Client) DeletePrescription(ctx context.Context, id string) error {
	if err := numericID(id); err != nil {
		return err
	}
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/prescriptions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete prescription %s: %w", id, err)
	}
	return nil
}

// Upload handles POST /upload.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*prescription.Analysis, error) {
	var resp uploadResponse
	if err := c.ai.UploadFile(ctx, "/upload", "file", filename, content, &resp); err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	if err := check("upload", resp.apiError); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.StructuredText) == "" {
		return nil, errors.New("upload: unable to structure text")
	}
	return &prescription.Analysis{
		Filename:           resp.Filename,
		ExtractedText:      resp.ExtractedText,
		StructuredText:     resp.StructuredText,
		GenericPredictions: resp.GenericPredictions,
		Alternatives:       resp.Alternatives,
	}, nil
}

// Summary handles POST /generate-summary.
func (c *Client) Summary(ctx context.Context, structuredText string, meds []medication.Record) (string, error) {
	var resp summaryResponse
	req := generateRequest{StructuredText: structuredText, Medications: meds}
	if err := c.ai.DoJSON(ctx, http.MethodPost, "/generate-summary", req, &resp); err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	return resp.Summary, check("generate summary", resp.apiError)
}

// WellnessTips handles POST /generate-wellness-tips.
func (c *Client) WellnessTips(ctx context.Context, structuredText string, meds []medication.Record) (string, error) {
	var resp tipsResponse
	req := generateRequest{StructuredText: structuredText, Medications: meds}
	if err := c.ai.DoJSON(ctx, http.MethodPost, "/generate-wellness-tips", req, &resp); err != nil {
		return "", fmt.Errorf("generate wellness tips: %w", err)
	}
	return resp.Tips, check("generate wellness tips", resp.apiError)
}

// EmergencyDoc handles POST /generate-prescription-doc and returns the
// document URL.
func (c *Client) EmergencyDoc(ctx context.Context, doc prescription.EmergencyDoc) (string, error) {
	var resp docResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/generate-prescription-doc", doc, &resp); err != nil {
		return "", fmt.Errorf("generate prescription doc: %w", err)
	}
	if err := check("generate prescription doc", resp.apiError); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", errors.New("generate prescription doc: empty url")
	}
	return resp.URL, nil
}

// FindAlternatives handles POST /find-alternatives. Keys of the result are
// lower-cased.
func (c *Client) FindAlternatives(ctx context.Context, drugs []string) (map[string][]string, error) {
	var resp alternativesResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/find-alternatives", alternativesRequest{Drugs: drugs}, &resp); err != nil {
		return nil, fmt.Errorf("find alternatives: %w", err)
	}
	if err := check("find alternatives", resp.apiError); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(resp.Alternatives))
	for name, alts := range resp.Alternatives {
		out[strings.ToLower(name)] = alts
	}
	return out, nil
}

type chatRequest struct {
	Chat    string              `json:"chat"`
	History []assistant.Message `json:"history"`
}

type chatResponse struct {
	apiError
	Text    string              `json:"text"`
	History []assistant.Message `json:"history"`
}

// Chat handles POST /chat-gemini.
func (c *Client) Chat(ctx context.Context, message string, history []assistant.Message) (*assistant.Reply, error) {
	if history == nil {
		history = []assistant.Message{}
	}
	var resp chatResponse
	if err := c.ai.DoJSON(ctx, http.MethodPost, "/chat-gemini", chatRequest{Chat: message, History: history}, &resp); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if err := check("chat", resp.apiError); err != nil {
		return nil, err
	}
	return &assistant.Reply{Text: resp.Text, History: resp.History}, nil
}

// NearbyPharmacies handles GET /api/pharmacies.
func (c *Client) NearbyPharmacies(ctx context.Context, pos locator.Position) ([]locator.Pharmacy, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Lng, 'f', -1, 64))
	var dtos []pharmacyDTO
	if err := c.api.DoJSON(ctx, http.MethodGet, "/api/pharmacies?"+q.Encode(), nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch pharmacies: %w", err)
	}
	out := make([]locator.Pharmacy, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, locator.Pharmacy{ID: d.ID.String(), Name: d.Name, Address: d.Address})
	}
	return out, nil
}
