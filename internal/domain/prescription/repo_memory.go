package prescription

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu    sync.RWMutex
	items []Prescription
}

// NewMemoryRepo returns a process-local Repository.
func NewMemoryRepo() Repository {
	return &memoryRepo{}
}

func clone(p Prescription) Prescription {
	p.Medications = append([]string{}, p.Medications...)
	if p.GenericPredictions != nil {
		p.GenericPredictions = append([]byte{}, p.GenericPredictions...)
	}
	return p
}

func (m *memoryRepo) indexOf(id string) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *memoryRepo) List(_ context.Context) ([]Prescription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Prescription, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, clone(p))
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (*Prescription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := clone(m.items[i])
	return &p, nil
}

func (m *memoryRepo) Create(_ context.Context, p *Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, clone(*p))
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

func (m *memoryRepo) ReplaceAll(_ context.Context, items []Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make([]Prescription, 0, len(items))
	for _, p := range items {
		m.items = append(m.items, clone(p))
	}
	return nil
}
