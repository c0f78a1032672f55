package reminder

import (
	"context"
	"sync"
	"time"
)

type memoryRepo struct {
	mu        sync.RWMutex
	reminders []Reminder
}

// NewMemoryRepo returns a process-local Repository.
func NewMemoryRepo() Repository {
	return &memoryRepo{}
}

func clone(r Reminder) Reminder {
	r.TakenHistory = append([]time.Time{}, r.TakenHistory...)
	return r
}

func (m *memoryRepo) indexOf(id string) int {
	for i := range m.reminders {
		if m.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *memoryRepo) List(_ context.Context) ([]Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		out = append(out, clone(r))
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (*Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	r := clone(m.reminders[i])
	return &r, nil
}

func (m *memoryRepo) Create(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(r.ID) >= 0 {
		return ErrDuplicate
	}
	m.reminders = append(m.reminders, clone(*r))
	return nil
}

func (m *memoryRepo) Update(_ context.Context, r *Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(r.ID)
	if i < 0 {
		return ErrNotFound
	}
	m.reminders[i] = clone(*r)
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	m.reminders = append(m.reminders[:i], m.reminders[i+1:]...)
	return nil
}

func (m *memoryRepo) ReplaceAll(_ context.Context, reminders []Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		m.reminders = append(m.reminders, clone(r))
	}
	return nil
}
