package reminder

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("reminder not found")
	ErrDuplicate = errors.New("reminder id already exists")
)

// Repository stores reminders in insertion order.
type Repository interface {
	List(ctx context.Context) ([]Reminder, error)
	Get(ctx context.Context, id string) (*Reminder, error)
	Create(ctx context.Context, r *Reminder) error
	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, reminders []Reminder) error
}
