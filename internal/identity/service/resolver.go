package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"church-portal/internal/authstate"
	identitydomain "church-portal/internal/identity/domain"
	sessiondomain "church-portal/internal/session/domain"
)

// Resolution is the outcome of resolving a session cookie. Identity is nil for anonymous requests.
type Resolution struct {
	SessionID string
	Identity  *identitydomain.Identity
	Refreshed bool // the access token was rotated during this resolution
}

// Anonymous reports whether no identity was resolved.
func (r Resolution) Anonymous() bool {
	return r.Identity == nil
}

// Resolver turns a session id into a server-validated identity. Every failure resolves to
// anonymous; no error reaches the caller.
type Resolver struct {
	provider      Provider
	sessions      Sessions
	notifier      Notifier
	timeout       time.Duration
	refreshWindow time.Duration
	logger        *zap.Logger
	nowF          func() time.Time
}

// NewResolver returns a resolver. timeout bounds the whole resolution; refreshWindow is how
// close to expiry an access token is refreshed ahead of validation. notifier is told when a
// session is ended and may be nil.
func NewResolver(provider Provider, sessions Sessions, notifier Notifier, timeout, refreshWindow time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Resolver{
		provider:      provider,
		sessions:      sessions,
		notifier:      notifier,
		timeout:       timeout,
		refreshWindow: refreshWindow,
		logger:        logger,
		nowF:          func() time.Time { return time.Now().UTC() },
	}
}

// Resolve validates the session behind sessionID with the auth provider.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) Resolution {
	anon := Resolution{SessionID: sessionID}
	if sessionID == "" {
		return anon
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	s, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		r.logger.Warn("session store unavailable", zap.Error(err))
		return anon
	}
	if s == nil {
		return anon
	}

	refreshed := false
	if s.NeedsRefresh(r.nowF(), r.refreshWindow) {
		switch err := r.refresh(ctx, s); {
		case err == nil:
			refreshed = true
		case errors.Is(err, identitydomain.ErrUnauthenticated):
			r.end(ctx, s.ID, "refresh token rejected")
			return anon
		default:
			// Keep the current token; the provider decides below whether it is still valid.
			r.logger.Warn("token refresh failed", zap.String("user_id", s.UserID), zap.Error(err))
		}
	}

	ident, err := r.provider.GetUser(ctx, s.AccessToken)
	if errors.Is(err, identitydomain.ErrUnauthenticated) && !refreshed && s.RefreshToken != "" {
		if rerr := r.refresh(ctx, s); rerr == nil {
			refreshed = true
			ident, err = r.provider.GetUser(ctx, s.AccessToken)
		}
	}
	switch {
	case errors.Is(err, identitydomain.ErrUnauthenticated):
		r.end(ctx, s.ID, "access token rejected")
		return anon
	case err != nil:
		r.logger.Warn("session validation failed", zap.String("user_id", s.UserID), zap.Error(err))
		return anon
	case ident.ID != s.UserID:
		r.end(ctx, s.ID, "identity mismatch")
		return anon
	}
	return Resolution{SessionID: sessionID, Identity: ident, Refreshed: refreshed}
}

func (r *Resolver) refresh(ctx context.Context, s *sessiondomain.Session) error {
	toks, err := r.provider.Refresh(ctx, s.RefreshToken)
	if err != nil {
		return err
	}
	return r.sessions.Rotate(ctx, s, toks)
}

func (r *Resolver) end(ctx context.Context, sessionID, reason string) {
	r.logger.Info("ending session", zap.String("reason", reason))
	if err := r.sessions.End(ctx, sessionID); err != nil {
		r.logger.Warn("failed to delete session", zap.Error(err))
	}
	r.notifier.Notify(sessionID, authstate.Event{Kind: authstate.SignedOut})
}
