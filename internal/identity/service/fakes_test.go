package service

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"church-portal/internal/authstate"
	identitydomain "church-portal/internal/identity/domain"
	profiledomain "church-portal/internal/profile/domain"
	sessiondomain "church-portal/internal/session/domain"
)

type mockProvider struct {
	getUser    func(token string) (*identitydomain.Identity, error)
	signIn     func(email, password string) (*identitydomain.Tokens, error)
	signUp     func(email, password string, attrs identitydomain.Attributes) (*identitydomain.Tokens, error)
	refresh    func(token string) (*identitydomain.Tokens, error)
	signOutErr error

	getUserCalls  []string
	refreshCalls  int
	signOutTokens []string
	signUpAttrs   []identitydomain.Attributes
}

func (m *mockProvider) GetUser(_ context.Context, token string) (*identitydomain.Identity, error) {
	m.getUserCalls = append(m.getUserCalls, token)
	if m.getUser == nil {
		return nil, identitydomain.ErrUnauthenticated
	}
	return m.getUser(token)
}

func (m *mockProvider) SignInWithPassword(_ context.Context, email, password string) (*identitydomain.Tokens, error) {
	if m.signIn == nil {
		return nil, &identitydomain.CredentialError{Reason: identitydomain.ReasonInvalidCredentials}
	}
	return m.signIn(email, password)
}

func (m *mockProvider) SignUp(_ context.Context, email, password string, attrs identitydomain.Attributes) (*identitydomain.Tokens, error) {
	m.signUpAttrs = append(m.signUpAttrs, attrs)
	if m.signUp == nil {
		return nil, identitydomain.ErrBackendUnavailable
	}
	return m.signUp(email, password, attrs)
}

func (m *mockProvider) Refresh(_ context.Context, token string) (*identitydomain.Tokens, error) {
	m.refreshCalls++
	if m.refresh == nil {
		return nil, identitydomain.ErrUnauthenticated
	}
	return m.refresh(token)
}

func (m *mockProvider) SignOut(_ context.Context, token string) error {
	m.signOutTokens = append(m.signOutTokens, token)
	return m.signOutErr
}

type mockSessions struct {
	mu      sync.Mutex
	byID    map[string]*sessiondomain.Session
	getErr  error
	next    int
	ended   []string
	rotated int
}

func newMockSessions(seed ...*sessiondomain.Session) *mockSessions {
	m := &mockSessions{byID: make(map[string]*sessiondomain.Session)}
	for _, s := range seed {
		m.byID[s.ID] = s
	}
	return m
}

func (m *mockSessions) Start(_ context.Context, toks *identitydomain.Tokens) (*sessiondomain.Session, error) {
	if toks == nil || toks.AccessToken == "" {
		return nil, errors.New("no tokens")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	s := &sessiondomain.Session{
		ID:           "sess-" + strconv.Itoa(m.next),
		UserID:       toks.Identity.ID,
		AccessToken:  toks.AccessToken,
		RefreshToken: toks.RefreshToken,
	}
	m.byID[s.ID] = s
	return s, nil
}

func (m *mockSessions) Get(_ context.Context, id string) (*sessiondomain.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *mockSessions) Rotate(_ context.Context, s *sessiondomain.Session, toks *identitydomain.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotated++
	s.AccessToken = toks.AccessToken
	if toks.RefreshToken != "" {
		s.RefreshToken = toks.RefreshToken
	}
	s.AccessExpiresAt = toks.ExpiresAt
	return nil
}

func (m *mockSessions) End(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	m.ended = append(m.ended, id)
	return nil
}

type recordingNotifier struct {
	sessions []string
	events   []authstate.Event
}

func (n *recordingNotifier) Notify(sessionID string, ev authstate.Event) {
	n.sessions = append(n.sessions, sessionID)
	n.events = append(n.events, ev)
}

type mockProvisioner struct {
	profiles []*profiledomain.Profile
	err      error
}

func (m *mockProvisioner) Upsert(_ context.Context, p *profiledomain.Profile) error {
	m.profiles = append(m.profiles, p)
	return m.err
}

type auditEntry struct {
	churchID, userID, action, resource string
	metadata                           map[string]string
}

type mockAudit struct {
	entries []auditEntry
}

func (m *mockAudit) LogEvent(_ context.Context, churchID, userID, action, resource string, metadata map[string]string) {
	m.entries = append(m.entries, auditEntry{churchID, userID, action, resource, metadata})
}

func (m *mockAudit) actions() []string {
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.action)
	}
	return out
}
