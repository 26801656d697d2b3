package repository

import (
	"context"

	"church-portal/internal/profile/domain"
)

// Repository defines persistence for profiles.
type Repository interface {
	// GetByID returns the profile for id, or (nil, nil) when no row exists.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	// ListByChurch returns the profiles attached to churchID ordered by name.
	ListByChurch(ctx context.Context, churchID string) ([]*domain.Profile, error)
	// ListByEmail returns the profiles whose email matches, ignoring case.
	ListByEmail(ctx context.Context, email string) ([]*domain.Profile, error)
	// CountByChurch returns how many profiles are attached to churchID.
	CountByChurch(ctx context.Context, churchID string) (int, error)
	// Upsert inserts p or updates name, role and church of an existing row.
	Upsert(ctx context.Context, p *domain.Profile) error
	// Assign sets role and church for id. An empty churchID detaches the profile.
	Assign(ctx context.Context, id string, role domain.Role, churchID string) error
}
