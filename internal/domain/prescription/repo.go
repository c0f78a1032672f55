package prescription

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("prescription not found")

// Repository stores the prescription history, oldest first.
type Repository interface {
	List(ctx context.Context) ([]Prescription, error)
	Get(ctx context.Context, id string) (*Prescription, error)
	Create(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, items []Prescription) error
}
