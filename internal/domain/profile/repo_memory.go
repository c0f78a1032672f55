package profile

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu      sync.RWMutex
	profile *Profile
}

// NewMemoryRepo returns a process-local Repository.
func NewMemoryRepo() Repository {
	return &memoryRepo{}
}

func (m *memoryRepo) Get(_ context.Context) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil, ErrNotFound
	}
	p := *m.profile
	return &p, nil
}

func (m *memoryRepo) Save(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.profile = &cp
	return nil
}
