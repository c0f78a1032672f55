// Package notification renders reminder and appointment alerts from templates
// and delivers them to websocket subscribers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/kanishkhaa/smartrx/internal/platform/websocket"
)

// Built-in template ids.
const (
	TemplateMedicationReminder  = "medication-reminder"
	TemplateAppointmentUpcoming = "appointment-upcoming"
	TemplateRefillDue           = "refill-due"
)

// Notification is a rendered alert.
type Notification struct {
	ID           string            `json:"id"`
	TemplateID   string            `json:"template_id"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	ResourceType string            `json:"resource_type"`
	ResourceID   string            `json:"resource_id"`
	Data         map[string]string `json:"data,omitempty"`
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Template is a {{key}} text template.
type Template struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic"`
}

// TemplateEngine holds templates by id.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateEngine creates an engine with the built-in templates.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	for _, t := range []Template{
		{
			ID:    TemplateMedicationReminder,
			Title: "Medication Reminder",
			Body:  "Time to take {{medication}}",
			Topic: websocket.TopicNotifications,
		},
		{
			ID:    TemplateAppointmentUpcoming,
			Title: "Upcoming Appointment",
			Body:  "Upcoming appointment at {{hospital}} in 15 minutes",
			Topic: websocket.TopicNotifications,
		},
		{
			ID:    TemplateRefillDue,
			Title: "Refill Reminder",
			Body:  "Time to refill {{medication}}. Contact pharmacy for refill.",
			Topic: websocket.TopicNotifications,
		},
	} {
		e.templates[t.ID] = t
	}
	return e
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t.Topic == "" {
		t.Topic = websocket.TopicNotifications
	}
	e.templates[t.ID] = t
}

// Render substitutes data into the template. Unknown placeholders are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (Template, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return Template{}, fmt.Errorf("template %q not found", templateID)
	}
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		t.Title = strings.ReplaceAll(t.Title, placeholder, v)
		t.Body = strings.ReplaceAll(t.Body, placeholder, v)
	}
	return t, nil
}

const historySize = 200

// Manager renders, publishes and remembers recent notifications.
type Manager struct {
	publisher websocket.EventPublisher
	templates *TemplateEngine
	logger    zerolog.Logger

	mu      sync.RWMutex
	history []*Notification
}

func NewManager(publisher websocket.EventPublisher, templates *TemplateEngine, logger zerolog.Logger) *Manager {
	return &Manager{publisher: publisher, templates: templates, logger: logger}
}

// Notify renders templateID with data and publishes it. A publish failure is
// recorded on the notification and returned.
func (m *Manager) Notify(ctx context.Context, templateID, resourceType, resourceID string, data map[string]string) (*Notification, error) {
	t, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		ID:           uuid.NewString(),
		TemplateID:   templateID,
		Title:        t.Title,
		Body:         t.Body,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Data:         data,
		Status:       "sent",
		CreatedAt:    time.Now().UTC(),
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	pubErr := m.publisher.Publish(ctx, websocket.Event{
		Type:         templateID,
		Topic:        t.Topic,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Timestamp:    n.CreatedAt,
		Data:         payload,
	})
	if pubErr != nil {
		n.Status = "failed"
		n.Error = pubErr.Error()
	}

	m.remember(n)
	m.logger.Info().Str("template", templateID).Str("resource_id", resourceID).Str("status", n.Status).Msg(n.Body)
	return n, pubErr
}

func (m *Manager) remember(n *Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, n)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
}

// Recent returns up to limit notifications, newest first.
func (m *Manager) Recent(limit int) []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Notification{}
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.history[i])
	}
	return out
}

// Get finds a remembered notification by id.
func (m *Manager) Get(id string) (*Notification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, n := range m.history {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}

// Handler exposes the notification history.
type Handler struct {
	manager *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{manager: mgr}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.HandleList)
	g.GET("/notifications/:id", h.HandleGet)
}

// HandleList handles GET /notifications?limit=N (default 50).
func (h *Handler) HandleList(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > historySize {
		limit = 50
	}
	return c.JSON(http.StatusOK, h.manager.Recent(limit))
}

func (h *Handler) HandleGet(c echo.Context) error {
	n, ok := h.manager.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}
	return c.JSON(http.StatusOK, n)
}
