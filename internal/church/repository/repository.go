// Package repository persists churches and their tenant-scoped records in Postgres.
// Reads return (nil, nil) for a missing row.
package repository

import (
	"context"
	"time"

	"church-portal/internal/church/domain"
)

// ChurchRepository stores churches.
type ChurchRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Church, error)
	List(ctx context.Context) ([]*domain.Church, error)
	Create(ctx context.Context, c *domain.Church) error
	Update(ctx context.Context, c *domain.Church) error
}

// ApplicationRepository stores church applications.
type ApplicationRepository interface {
	Create(ctx context.Context, a *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	ListOpen(ctx context.Context) ([]*domain.Application, error)
	// Approve creates church, marks the application approved and makes profile adminID
	// CHURCH_ADMIN of the church, atomically. An empty adminID assigns nobody. A SYSTEM_ADMIN
	// profile is never reassigned; adminAssigned reports whether a profile was updated.
	Approve(ctx context.Context, appID, reviewerID, notes string, church *domain.Church, adminID string) (adminAssigned bool, err error)
	Reject(ctx context.Context, appID, reviewerID, reason string) error
}

// EventRepository stores church events.
type EventRepository interface {
	Create(ctx context.Context, e *domain.Event) error
	ListByChurch(ctx context.Context, churchID string) ([]*domain.Event, error)
	ListUpcoming(ctx context.Context, churchID string, from time.Time, limit int) ([]*domain.Event, error)
	CountUpcoming(ctx context.Context, churchID string, from time.Time) (int, error)
}

// InventoryRepository stores inventory items.
type InventoryRepository interface {
	Create(ctx context.Context, item *domain.InventoryItem) error
	ListByChurch(ctx context.Context, churchID string) ([]*domain.InventoryItem, error)
	CountByChurch(ctx context.Context, churchID string) (int, error)
}

// FileRepository stores file metadata.
type FileRepository interface {
	Create(ctx context.Context, f *domain.File) error
	ListByChurch(ctx context.Context, churchID string) ([]*domain.File, error)
	CountByChurch(ctx context.Context, churchID string) (int, error)
}
