// Package service resolves an identity to its profile with a definite outcome.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"church-portal/internal/db"
	"church-portal/internal/profile/domain"
)

// Status is the outcome of a profile lookup.
type Status int

const (
	// StatusFound means a profile row exists.
	StatusFound Status = iota
	// StatusNotProvisioned means the query succeeded but returned no row.
	StatusNotProvisioned
	// StatusLookupFailed means the query itself errored (including a missing schema or timeout).
	StatusLookupFailed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotProvisioned:
		return "not_provisioned"
	case StatusLookupFailed:
		return "lookup_failed"
	}
	return "unknown"
}

// Result carries the outcome. Profile is set only for StatusFound; Err only for StatusLookupFailed.
type Result struct {
	Status  Status
	Profile *domain.Profile
	Err     error
}

// Found reports whether a profile is present.
func (r Result) Found() bool {
	return r.Status == StatusFound && r.Profile != nil
}

// Getter is the read the lookup needs. Implemented by repository.PostgresRepository.
type Getter interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// Lookup fetches profiles and normalizes every failure into a Status.
type Lookup struct {
	repo    Getter
	timeout time.Duration
	logger  *zap.Logger
}

// NewLookup returns a lookup bounded by timeout. logger may be nil.
func NewLookup(repo Getter, timeout time.Duration, logger *zap.Logger) *Lookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{repo: repo, timeout: timeout, logger: logger}
}

// Lookup returns the profile for identityID. It never returns a raw error to the caller.
func (l *Lookup) Lookup(ctx context.Context, identityID string) Result {
	if identityID == "" {
		return Result{Status: StatusNotProvisioned}
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	p, err := l.repo.GetByID(ctx, identityID)
	switch {
	case err != nil:
		if db.IsUndefinedObject(err) {
			l.logger.Warn("profile schema not provisioned", zap.String("user_id", identityID), zap.Error(err))
		} else {
			l.logger.Error("profile lookup failed", zap.String("user_id", identityID), zap.Error(err))
		}
		return Result{Status: StatusLookupFailed, Err: err}
	case p == nil:
		l.logger.Info("profile not provisioned", zap.String("user_id", identityID))
		return Result{Status: StatusNotProvisioned}
	}
	return Result{Status: StatusFound, Profile: p}
}
