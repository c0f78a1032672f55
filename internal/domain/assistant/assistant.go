// Package assistant relays free-text medication questions to the AI backend
// and keeps the running conversation.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Roles used in the conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FormatSuffix is appended to every question so answers come back as short
// bullet points.
const FormatSuffix = " Please provide your response in short, easy-to-understand bullet points that are concise and readable."

// maxHistory caps stored turns; older turns are dropped first.
const maxHistory = 50

var ErrEmptyMessage = errors.New("message is required")

type Part struct {
	Text string `json:"text"`
}

type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Reply is the backend answer together with the history it produced.
type Reply struct {
	Text    string    `json:"text"`
	History []Message `json:"history"`
}

// Backend answers a question given the conversation so far.
type Backend interface {
	Chat(ctx context.Context, message string, history []Message) (*Reply, error)
}

// Category is a group of suggested questions.
type Category struct {
	Name    string   `json:"category"`
	Icon    string   `json:"icon"`
	Prompts []string `json:"prompts"`
}

// SamplePrompts are the suggested starter questions.
var SamplePrompts = []Category{
	{Name: "Common Medications", Icon: "💊", Prompts: []string{
		"What is Paracetamol used for?",
		"When should I take Ibuprofen vs Paracetamol?",
		"Is it safe to take Aspirin daily?",
		"What are the common side effects of antibiotics?",
	}},
	{Name: "Dosage & Safety", Icon: "📏", Prompts: []string{
		"How much Paracetamol is too much?",
		"Can I take Ibuprofen on an empty stomach?",
		"What medicines should not be mixed together?",
		"How to store medicines safely at home?",
	}},
	{Name: "Natural Alternatives", Icon: "🌿", Prompts: []string{
		"Natural remedies for cold and cough",
		"Are herbal supplements safe with medications?",
		"Can turmeric help with inflammation?",
		"Best home remedies for headaches",
	}},
	{Name: "Prescription Advice", Icon: "📝", Prompts: []string{
		"Why are prescriptions required for some medicines?",
		"What to ask your doctor before taking a new medicine?",
		"How to check if a medicine is genuine?",
		"How long should you take antibiotics?",
	}},
}

// Service holds a single conversation.
type Service struct {
	backend Backend
	logger  zerolog.Logger

	mu      sync.Mutex
	history []Message
}

func NewService(backend Backend, logger zerolog.Logger) *Service {
	return &Service{backend: backend, logger: logger, history: []Message{}}
}

// Ask sends a question. On success the conversation is replaced by the
// history the backend returned; on failure it is left untouched.
func (s *Service) Ask(ctx context.Context, question string) (*Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	history := append([]Message{}, s.history...)
	s.mu.Unlock()

	reply, err := s.backend.Chat(ctx, question+FormatSuffix, history)
	if err != nil {
		s.logger.Error().Err(err).Msg("chat request failed")
		return nil, fmt.Errorf("chat: %w", err)
	}
	if reply.Text == "" {
		reply.Text = "No response received."
	}
	if reply.History == nil {
		reply.History = append(history,
			Message{Role: RoleUser, Parts: []Part{{Text: question + FormatSuffix}}},
			Message{Role: RoleModel, Parts: []Part{{Text: reply.Text}}},
		)
	}
	if n := len(reply.History); n > maxHistory {
		reply.History = reply.History[n-maxHistory:]
	}

	s.mu.Lock()
	s.history = append([]Message{}, reply.History...)
	s.mu.Unlock()
	return reply, nil
}

func (s *Service) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.history...)
}

func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []Message{}
}
