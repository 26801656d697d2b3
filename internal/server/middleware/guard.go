// Package middleware protects routes by role and carries the resolved caller in the request context.
package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"church-portal/internal/access"
	"church-portal/internal/authstate"
	identityservice "church-portal/internal/identity/service"
	profileservice "church-portal/internal/profile/service"
	"church-portal/internal/telemetry"
)

// SessionResolver is implemented by identity/service.Resolver.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) identityservice.Resolution
}

// ProfileLookup is implemented by profile/service.Lookup.
type ProfileLookup interface {
	Lookup(ctx context.Context, identityID string) profileservice.Result
}

// SessionCookie reads and clears the session cookie. Implemented by session/service.Cookie.
type SessionCookie interface {
	Read(r *http.Request) string
	Clear(w http.ResponseWriter)
}

// GuardDeps wires a Guard. Notifier, Decisions, Emitter and Logger are optional.
type GuardDeps struct {
	Resolver   SessionResolver
	Classifier *access.Classifier
	Lookup     ProfileLookup
	Cookie     SessionCookie
	Notifier   identityservice.Notifier
	Decisions  *telemetry.DecisionCounter
	Emitter    telemetry.EventEmitter
	Logger     *zap.Logger
}

// Guard decides, for every request, whether it proceeds or is redirected.
type Guard struct {
	deps GuardDeps
}

// NewGuard returns a guard. Resolver, Classifier, Lookup and Cookie are required.
func NewGuard(deps GuardDeps) *Guard {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Guard{deps: deps}
}

// Evaluate resolves the caller of r and applies the redirect policy. The profile is looked
// up only for routes whose decision depends on it.
func (g *Guard) Evaluate(r *http.Request) (*Principal, access.Decision) {
	ctx := r.Context()
	sid := g.deps.Cookie.Read(r)
	res := g.deps.Resolver.Resolve(ctx, sid)

	p := &Principal{
		SessionID: sid,
		Identity:  res.Identity,
		Route:     g.deps.Classifier.Classify(r.URL.Path),
	}
	if p.Authenticated() {
		g.notify(sid, res)
		if access.NeedsProfile(p.Route) {
			result := g.deps.Lookup.Lookup(ctx, p.Identity.ID)
			p.ProfileChecked = true
			p.ProfileStatus = result.Status
			if result.Found() {
				p.Profile = result.Profile
			}
		}
	}
	return p, access.Decide(p.State(), p.Route)
}

// Middleware wraps next with the guard.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, d := g.Evaluate(r)
		if p.SessionID != "" && !p.Authenticated() {
			g.deps.Cookie.Clear(w)
			g.signedOut(p.SessionID)
		}
		g.record(r, p, d)
		if !d.Allow {
			http.Redirect(w, r, d.RedirectTo, http.StatusFound)
			return
		}
		ctx := WithPrincipal(r.Context(), p)
		if _, ok := ctx.Value(clientIPKey).(string); !ok {
			ctx = WithClientIP(ctx, remoteIP(r))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) notify(sid string, res identityservice.Resolution) {
	if g.deps.Notifier == nil || sid == "" {
		return
	}
	kind := authstate.SessionResolved
	if res.Refreshed {
		kind = authstate.TokenRefreshed
	}
	g.deps.Notifier.Notify(sid, authstate.Event{Kind: kind, Identity: res.Identity})
}

// signedOut releases the auth state of a session that no longer resolves.
func (g *Guard) signedOut(sid string) {
	if g.deps.Notifier != nil {
		g.deps.Notifier.Notify(sid, authstate.Event{Kind: authstate.SignedOut})
	}
}

func (g *Guard) record(r *http.Request, p *Principal, d access.Decision) {
	outcome := telemetry.OutcomeAllow
	if !d.Allow {
		outcome = telemetry.OutcomeRedirect
	}
	class := p.Route.Class.String()
	g.deps.Decisions.Record(r.Context(), class, outcome)
	if d.Allow {
		return
	}
	g.deps.Logger.Debug("route redirected",
		zap.String("path", r.URL.Path),
		zap.String("class", class),
		zap.String("state", p.State().Kind.String()),
		zap.String("redirect_to", d.RedirectTo),
	)
	ev := telemetry.NewEvent(telemetry.EventAccessDecision, "guard", map[string]string{
		"path":        r.URL.Path,
		"class":       class,
		"redirect_to": d.RedirectTo,
	})
	ev.UserID = p.UserID()
	ev.ChurchID = p.ChurchID()
	telemetry.EmitAsync(g.deps.Emitter, g.deps.Logger, ev)
}
