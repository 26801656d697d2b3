// Package repository persists session records keyed by their opaque id.
package repository

import (
	"context"
	"errors"

	"church-portal/internal/session/domain"
)

// ErrInvalidSession is returned when a record is missing its id or user, or is already expired.
var ErrInvalidSession = errors.New("session: invalid session record")

// Store defines persistence for sessions. Get returns (nil, nil) when the id is unknown or expired.
type Store interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}
