// Package service resolves sessions to identities and runs the sign-in, sign-up and
// sign-out flows against the auth provider.
package service

import (
	"context"

	"church-portal/internal/authstate"
	identitydomain "church-portal/internal/identity/domain"
	profiledomain "church-portal/internal/profile/domain"
	sessiondomain "church-portal/internal/session/domain"
)

// Provider is the auth provider. Implemented by gotrue.Client.
type Provider interface {
	GetUser(ctx context.Context, accessToken string) (*identitydomain.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identitydomain.Tokens, error)
	SignUp(ctx context.Context, email, password string, attrs identitydomain.Attributes) (*identitydomain.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*identitydomain.Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Sessions stores provider tokens behind opaque session ids. Implemented by session/service.Manager.
type Sessions interface {
	Start(ctx context.Context, tokens *identitydomain.Tokens) (*sessiondomain.Session, error)
	Get(ctx context.Context, id string) (*sessiondomain.Session, error)
	Rotate(ctx context.Context, s *sessiondomain.Session, tokens *identitydomain.Tokens) error
	End(ctx context.Context, id string) error
}

// Notifier receives session changes. Implemented by authstate.Registry.
type Notifier interface {
	Notify(sessionID string, ev authstate.Event)
}

// ProfileProvisioner writes the profile for a new identity. Implemented by profile/repository.PostgresRepository.
type ProfileProvisioner interface {
	Upsert(ctx context.Context, p *profiledomain.Profile) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, authstate.Event) {}
