package repository

import (
	"context"

	"church-portal/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByChurch returns the newest entries for churchID, at most limit.
	ListByChurch(ctx context.Context, churchID string, limit int) ([]*domain.AuditLog, error)
}
