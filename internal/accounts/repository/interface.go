// Package repository reads user profiles. Profiles are written by the
// privileged admin functions, never by this service.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Profile is one application user.
type Profile struct {
	ID         uuid.UUID
	Email      string
	FullName   string
	Role       string
	CodePrefix *string
	IsActive   bool
	CreatedAt  time.Time
}

// Repository is the profile reader.
type Repository interface {
	List(ctx context.Context) ([]Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (Profile, error)
	PrefixTaken(ctx context.Context, prefix string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}
