// Package service manages server-side sessions that hold the auth provider's tokens.
package service

import (
	"context"
	"errors"
	"time"

	identitydomain "church-portal/internal/identity/domain"
	"church-portal/internal/session/domain"
	"church-portal/internal/session/repository"
)

// ErrNoTokens is returned by Start when the provider did not issue an access token
// (for example, sign-up pending email confirmation).
var ErrNoTokens = errors.New("session: no access token to store")

// Manager creates, reads, rotates and ends session records.
type Manager struct {
	store repository.Store
	ttl   time.Duration
	nowF  func() time.Time
}

// NewManager returns a manager whose sessions live for ttl.
func NewManager(store repository.Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, nowF: func() time.Time { return time.Now().UTC() }}
}

// Start stores a new session for tokens and returns it. The caller sets the cookie.
func (m *Manager) Start(ctx context.Context, tokens *identitydomain.Tokens) (*domain.Session, error) {
	if tokens == nil || tokens.AccessToken == "" {
		return nil, ErrNoTokens
	}
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	now := m.nowF()
	s := &domain.Session{
		ID:              id,
		UserID:          tokens.Identity.ID,
		AccessToken:     tokens.AccessToken,
		RefreshToken:    tokens.RefreshToken,
		AccessExpiresAt: accessExpiry(tokens),
		ExpiresAt:       now.Add(m.ttl),
		CreatedAt:       now,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the session for id, or nil when unknown or expired.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}
	return m.store.Get(ctx, id)
}

// Rotate replaces the tokens of s after a refresh. The absolute expiry is unchanged.
func (m *Manager) Rotate(ctx context.Context, s *domain.Session, tokens *identitydomain.Tokens) error {
	s.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		s.RefreshToken = tokens.RefreshToken
	}
	s.AccessExpiresAt = accessExpiry(tokens)
	return m.store.Update(ctx, s)
}

// End deletes the session for id.
func (m *Manager) End(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// accessExpiry prefers the expiry the provider reported and falls back to the token's exp claim.
func accessExpiry(tokens *identitydomain.Tokens) time.Time {
	if !tokens.ExpiresAt.IsZero() {
		return tokens.ExpiresAt
	}
	info, err := domain.InspectAccessToken(tokens.AccessToken)
	if err != nil {
		return time.Time{}
	}
	return info.ExpiresAt
}
