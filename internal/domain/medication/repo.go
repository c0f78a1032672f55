package medication

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("medication not found")
	ErrDuplicate = errors.New("medication with this name already exists")
)

// Repository stores the medication collection. Names are unique and List
// returns records in insertion order.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	GetByName(ctx context.Context, name string) (*Record, error)
	Create(ctx context.Context, r *Record) error
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, records []Record) error
}
