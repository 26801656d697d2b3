package middleware

import (
	"context"
	"net"
	"net/http"

	"church-portal/internal/access"
	identitydomain "church-portal/internal/identity/domain"
	profiledomain "church-portal/internal/profile/domain"
	profileservice "church-portal/internal/profile/service"
)

type contextKey struct{ name string }

var (
	principalKey = contextKey{"principal"}
	clientIPKey  = contextKey{"client_ip"}
)

// Principal is what the guard learned about the caller of a request.
type Principal struct {
	SessionID string
	Identity  *identitydomain.Identity
	// Profile is set only when the profile was looked up and found.
	Profile *profiledomain.Profile
	// ProfileChecked reports whether a lookup ran; ProfileStatus is meaningful only then.
	ProfileChecked bool
	ProfileStatus  profileservice.Status
	Route          access.Route
}

// Authenticated reports whether the session resolved to an identity.
func (p *Principal) Authenticated() bool {
	return p != nil && p.Identity != nil
}

// NeedsSetup reports whether the caller is signed in but has no usable profile.
func (p *Principal) NeedsSetup() bool {
	return p.Authenticated() && p.ProfileChecked && p.Profile == nil
}

// UserID returns the identity id or "".
func (p *Principal) UserID() string {
	if !p.Authenticated() {
		return ""
	}
	return p.Identity.ID
}

// ChurchID returns the profile's church or "".
func (p *Principal) ChurchID() string {
	if p == nil || p.Profile == nil {
		return ""
	}
	return p.Profile.ChurchID
}

// State maps the principal onto the redirect policy's auth states.
func (p *Principal) State() access.State {
	switch {
	case !p.Authenticated():
		return access.AnonymousState()
	case p.Profile != nil:
		return access.ProfileState(p.Profile.Role)
	default:
		return access.NoProfileState()
	}
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the principal from ctx and true if set; otherwise nil, false.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// WithClientIP returns a context carrying the client ip.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the client ip stored by the guard, or "unknown".
// It matches audit.IPExtractor.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// remoteIP returns the host of r.RemoteAddr, or "unknown". Forwarding headers are ignored;
// behind a proxy the Gin engine's trusted proxies decide the client IP instead.
func remoteIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
