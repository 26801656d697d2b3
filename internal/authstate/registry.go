package authstate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	profiledomain "church-portal/internal/profile/domain"
	profileservice "church-portal/internal/profile/service"
)

// Registry owns one Observer per browser session id. Observers are created on the first
// event for a session and torn down on SignedOut, Drop, or after idleTTL without events.
type Registry struct {
	fetch   ProfileFunc
	timeout time.Duration
	idleTTL time.Duration
	logger  *zap.Logger
	nowF    func() time.Time

	mu        sync.Mutex
	observers map[string]*entry
}

type entry struct {
	obs      *Observer
	userID   string
	lastSeen time.Time
}

// NewRegistry returns an empty registry whose observers use fetch bounded by timeout.
// idleTTL <= 0 disables idle eviction.
func NewRegistry(fetch ProfileFunc, timeout, idleTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		fetch:     fetch,
		timeout:   timeout,
		idleTTL:   idleTTL,
		logger:    logger,
		nowF:      time.Now,
		observers: make(map[string]*entry),
	}
}

// Notify routes ev to the observer of sessionID, creating it if needed. SignedOut tears the
// observer down.
func (r *Registry) Notify(sessionID string, ev Event) {
	if sessionID == "" {
		return
	}
	if ev.Kind == SignedOut {
		r.Drop(sessionID)
		return
	}
	userID := ""
	if ev.Identity != nil {
		userID = ev.Identity.ID
	}
	r.ensure(sessionID, userID).Notify(ev)
}

// Get returns the observer of sessionID, or nil when the session has none.
func (r *Registry) Get(sessionID string) *Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.observers[sessionID]; ok {
		return e.obs
	}
	return nil
}

// Snapshot returns the state of sessionID after waiting up to the fetch timeout for a
// pending profile fetch. An unknown session yields an empty snapshot.
func (r *Registry) Snapshot(ctx context.Context, sessionID string) Snapshot {
	o := r.Get(sessionID)
	if o == nil {
		return Snapshot{}
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	s, _ := o.Wait(ctx)
	return s
}

// Drop signs the observer of sessionID out and releases it.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	e := r.observers[sessionID]
	delete(r.observers, sessionID)
	r.mu.Unlock()
	if e != nil {
		release(e.obs)
	}
}

// InvalidateUser refetches the profile in every session of userID. It returns the number
// of sessions affected.
func (r *Registry) InvalidateUser(userID string) int {
	if userID == "" {
		return 0
	}
	r.mu.Lock()
	var hit []*Observer
	for _, e := range r.observers {
		if e.userID == userID {
			hit = append(hit, e.obs)
		}
	}
	r.mu.Unlock()
	for _, o := range hit {
		o.Invalidate()
	}
	return len(hit)
}

// Sweep releases observers that have seen no event for idleTTL. It returns the number
// released.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.nowF().Add(-r.idleTTL)
	r.mu.Lock()
	var stale []*Observer
	for sid, e := range r.observers {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.obs)
			delete(r.observers, sid)
		}
	}
	r.mu.Unlock()
	for _, o := range stale {
		release(o)
	}
	if len(stale) > 0 {
		r.logger.Debug("evicted idle auth state", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// SweepEvery runs Sweep on every tick of interval until ctx is done.
func (r *Registry) SweepEvery(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// Len returns the number of live observers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

// Close tears down every observer.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.observers
	r.observers = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range all {
		e.obs.Close()
	}
}

func (r *Registry) ensure(sessionID, userID string) *Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.observers[sessionID]
	if !ok {
		e = &entry{obs: NewObserver(r.fetch, r.timeout, r.logger.With(zap.String("component", "authstate")))}
		r.observers[sessionID] = e
	}
	if userID != "" {
		e.userID = userID
	}
	e.lastSeen = r.nowF()
	return e.obs
}

func release(o *Observer) {
	o.Notify(Event{Kind: SignedOut})
	o.Close()
}

// LookupFunc adapts a profile lookup to a ProfileFunc. A missing profile is (nil, nil);
// a failed lookup is an error.
func LookupFunc(l *profileservice.Lookup) ProfileFunc {
	return func(ctx context.Context, identityID string) (*profiledomain.Profile, error) {
		res := l.Lookup(ctx, identityID)
		if res.Status == profileservice.StatusLookupFailed {
			return nil, res.Err
		}
		return res.Profile, nil
	}
}
