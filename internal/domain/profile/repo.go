package profile

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile not found")

// Repository holds the single profile.
type Repository interface {
	Get(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}
