package medication

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRepo returns a process-local Repository.
func NewMemoryRepo() Repository {
	return &memoryRepo{}
}

func (r *memoryRepo) List(_ context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *memoryRepo) indexOf(id string) int {
	for i := range r.records {
		if r.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		rec := r.records[i]
		return &rec, nil
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) GetByName(_ context.Context, name string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.Name == name {
			rec := rec
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records {
		if existing.Name == rec.Name {
			return ErrDuplicate
		}
	}
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRepo) Update(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(rec.ID)
	if i < 0 {
		return ErrNotFound
	}
	for j, existing := range r.records {
		if j != i && existing.Name == rec.Name {
			return ErrDuplicate
		}
	}
	rec.CreatedAt = r.records[i].CreatedAt
	r.records[i] = *rec
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	r.records = append(r.records[:i], r.records[i+1:]...)
	return nil
}

func (r *memoryRepo) ReplaceAll(_ context.Context, records []Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		r.records = append(r.records, rec)
	}
	return nil
}
