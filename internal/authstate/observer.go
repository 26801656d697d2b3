// Package authstate mirrors a browser session's identity and profile for page rendering.
package authstate

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	identitydomain "church-portal/internal/identity/domain"
	profiledomain "church-portal/internal/profile/domain"
)

// DefaultFetchTimeout bounds a profile fetch when none is configured.
const DefaultFetchTimeout = 2 * time.Second

// EventKind is a session change reported to an Observer.
type EventKind int

const (
	SignedIn EventKind = iota
	TokenRefreshed
	SessionResolved
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case TokenRefreshed:
		return "token_refreshed"
	case SessionResolved:
		return "session_resolved"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Event is a session change. Identity is nil for SignedOut.
type Event struct {
	Kind     EventKind
	Identity *identitydomain.Identity
}

// Snapshot is the state exposed to rendering. Profile is nil while loading, when no
// profile exists, and when the fetch failed or timed out.
type Snapshot struct {
	Identity *identitydomain.Identity
	Profile  *profiledomain.Profile
	Loading  bool
}

// ProfileFunc fetches the profile for an identity id. (nil, nil) means no profile row.
type ProfileFunc func(ctx context.Context, identityID string) (*profiledomain.Profile, error)

// Observer holds one session's auth state. Profile fetches are deduplicated per identity
// id: a fetched profile is reused until the identity changes or Invalidate is called, and
// concurrent requests for the same id share one fetch.
type Observer struct {
	fetch   ProfileFunc
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	identity  *identitydomain.Identity
	profile   *profiledomain.Profile
	cachedFor string // identity id whose profile is cached; "" when none
	loading   bool
	changed   chan struct{}

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewObserver returns an observer with no identity. timeout <= 0 selects DefaultFetchTimeout.
func NewObserver(fetch ProfileFunc, timeout time.Duration, logger *zap.Logger) *Observer {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Observer{
		fetch:   fetch,
		timeout: timeout,
		logger:  logger,
		changed: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Notify updates the observer for ev. It returns immediately; a profile fetch, if one is
// needed, runs in the background.
func (o *Observer) Notify(ev Event) {
	if ev.Kind == SignedOut || ev.Identity == nil || ev.Identity.ID == "" {
		o.mu.Lock()
		o.identity, o.profile, o.cachedFor, o.loading = nil, nil, "", false
		o.broadcastLocked()
		o.mu.Unlock()
		return
	}

	id := ev.Identity.ID
	ident := *ev.Identity

	o.mu.Lock()
	if o.ctx.Err() != nil {
		o.mu.Unlock()
		return
	}
	if o.identity == nil || o.identity.ID != id {
		o.profile, o.cachedFor = nil, ""
	}
	o.identity = &ident
	if o.cachedFor == id {
		o.loading = false
		o.broadcastLocked()
		o.mu.Unlock()
		return
	}
	o.loading = true
	o.broadcastLocked()
	o.wg.Add(1)
	o.mu.Unlock()

	go o.load(id)
}

// Invalidate drops the cached profile and refetches it for the current identity.
func (o *Observer) Invalidate() {
	o.mu.Lock()
	o.cachedFor = ""
	var ident *identitydomain.Identity
	if o.identity != nil {
		c := *o.identity
		ident = &c
	}
	o.mu.Unlock()
	if ident != nil {
		o.Notify(Event{Kind: SessionResolved, Identity: ident})
	}
}

// State returns the current snapshot.
func (o *Observer) State() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Wait blocks until no fetch is pending or ctx is done, then returns the snapshot.
func (o *Observer) Wait(ctx context.Context) (Snapshot, error) {
	for {
		o.mu.Lock()
		if !o.loading {
			s := o.snapshotLocked()
			o.mu.Unlock()
			return s, nil
		}
		ch := o.changed
		o.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return o.State(), ctx.Err()
		}
	}
}

// Close cancels pending fetches and waits for them to finish. Notify is a no-op afterwards.
func (o *Observer) Close() {
	o.mu.Lock()
	o.cancel()
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Observer) load(id string) {
	defer o.wg.Done()

	o.mu.Lock()
	cached := o.cachedFor == id
	o.mu.Unlock()
	if !cached {
		_, _, _ = o.group.Do(id, func() (any, error) {
			o.fetchAndStore(id)
			return nil, nil
		})
	}

	o.mu.Lock()
	if o.identity != nil && o.identity.ID == id {
		o.loading = false
		o.broadcastLocked()
	}
	o.mu.Unlock()
}

// fetchAndStore runs inside the singleflight call so the cache is populated before the
// call completes; a caller arriving later either joins the call or sees the cache.
func (o *Observer) fetchAndStore(id string) {
	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()

	p, err := o.fetch(ctx, id)
	if err != nil {
		o.logger.Warn("profile fetch failed; continuing without profile", zap.String("user_id", id), zap.Error(err))
		p = nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.identity == nil || o.identity.ID != id {
		return
	}
	o.profile = p
	if err == nil {
		o.cachedFor = id
	}
}

func (o *Observer) snapshotLocked() Snapshot {
	s := Snapshot{Loading: o.loading}
	if o.identity != nil {
		c := *o.identity
		s.Identity = &c
	}
	if o.profile != nil {
		c := *o.profile
		s.Profile = &c
	}
	return s
}

func (o *Observer) broadcastLocked() {
	close(o.changed)
	o.changed = make(chan struct{})
}
