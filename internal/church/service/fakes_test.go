package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"church-portal/internal/church/domain"
	identitydomain "church-portal/internal/identity/domain"
	"church-portal/internal/policy/engine"
	profiledomain "church-portal/internal/profile/domain"
	"church-portal/internal/server/middleware"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeChurches struct {
	byID    map[string]*domain.Church
	updated []*domain.Church
}

func (f *fakeChurches) GetByID(_ context.Context, id string) (*domain.Church, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChurches) List(context.Context) ([]*domain.Church, error) {
	out := make([]*domain.Church, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeChurches) Create(_ context.Context, c *domain.Church) error {
	f.byID[c.ID] = c
	return nil
}

func (f *fakeChurches) Update(_ context.Context, c *domain.Church) error {
	if _, ok := f.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[c.ID] = c
	f.updated = append(f.updated, c)
	return nil
}

type fakeApplications struct {
	byID     map[string]*domain.Application
	approved []*domain.Church
	adminIDs []string
}

func (f *fakeApplications) Create(_ context.Context, a *domain.Application) error {
	f.byID[a.ID] = a
	return nil
}

func (f *fakeApplications) GetByID(_ context.Context, id string) (*domain.Application, error) {
	return f.byID[id], nil
}

func (f *fakeApplications) ListOpen(context.Context) ([]*domain.Application, error) {
	var out []*domain.Application
	for _, a := range f.byID {
		if a.Status.Open() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeApplications) Approve(_ context.Context, appID, reviewerID, notes string, c *domain.Church, adminID string) (bool, error) {
	a, ok := f.byID[appID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !a.Status.Open() {
		return false, domain.ErrAlreadyReviewed
	}
	a.Status = domain.StatusApproved
	a.ReviewedBy = reviewerID
	a.ApprovalNotes = notes
	a.CreatedChurchID = c.ID
	f.approved = append(f.approved, c)
	f.adminIDs = append(f.adminIDs, adminID)
	return adminID != "", nil
}

func (f *fakeApplications) Reject(_ context.Context, appID, reviewerID, reason string) error {
	a, ok := f.byID[appID]
	if !ok {
		return domain.ErrNotFound
	}
	if !a.Status.Open() {
		return domain.ErrAlreadyReviewed
	}
	a.Status = domain.StatusRejected
	a.ReviewedBy = reviewerID
	a.RejectionReason = reason
	return nil
}

type fakeEvents struct {
	events []*domain.Event
}

func (f *fakeEvents) Create(_ context.Context, e *domain.Event) error {
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) ListByChurch(_ context.Context, churchID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.events {
		if e.ChurchID == churchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) ListUpcoming(_ context.Context, churchID string, from time.Time, limit int) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.events {
		if e.ChurchID == churchID && !e.StartTime.Before(from) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) CountUpcoming(ctx context.Context, churchID string, from time.Time) (int, error) {
	evs, err := f.ListUpcoming(ctx, churchID, from, len(f.events))
	return len(evs), err
}

type fakeInventory struct {
	items []*domain.InventoryItem
}

func (f *fakeInventory) Create(_ context.Context, item *domain.InventoryItem) error {
	f.items = append(f.items, item)
	return nil
}

func (f *fakeInventory) ListByChurch(_ context.Context, churchID string) ([]*domain.InventoryItem, error) {
	var out []*domain.InventoryItem
	for _, it := range f.items {
		if it.ChurchID == churchID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeInventory) CountByChurch(ctx context.Context, churchID string) (int, error) {
	items, err := f.ListByChurch(ctx, churchID)
	return len(items), err
}

type fakeFiles struct {
	files    []*domain.File
	countErr error
}

func (f *fakeFiles) Create(_ context.Context, file *domain.File) error {
	f.files = append(f.files, file)
	return nil
}

func (f *fakeFiles) ListByChurch(_ context.Context, churchID string) ([]*domain.File, error) {
	var out []*domain.File
	for _, file := range f.files {
		if file.ChurchID == churchID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeFiles) CountByChurch(ctx context.Context, churchID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	files, err := f.ListByChurch(ctx, churchID)
	return len(files), err
}

type fakeProfiles struct {
	profiles []*profiledomain.Profile
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*profiledomain.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProfiles) ListByEmail(_ context.Context, email string) ([]*profiledomain.Profile, error) {
	var out []*profiledomain.Profile
	for _, p := range f.profiles {
		if strings.EqualFold(p.Email, email) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) ListByChurch(_ context.Context, churchID string) ([]*profiledomain.Profile, error) {
	var out []*profiledomain.Profile
	for _, p := range f.profiles {
		if p.ChurchID == churchID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) CountByChurch(ctx context.Context, churchID string) (int, error) {
	ps, err := f.ListByChurch(ctx, churchID)
	return len(ps), err
}

type fakeSessions struct {
	invalidated []string
}

func (f *fakeSessions) InvalidateUser(userID string) int {
	f.invalidated = append(f.invalidated, userID)
	return 1
}

type auditEntry struct {
	churchID, userID, action string
	metadata                 map[string]string
}

type mockAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAudit) LogEvent(_ context.Context, churchID, userID, action, _ string, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{churchID: churchID, userID: userID, action: action, metadata: metadata})
}

func (m *mockAudit) last() auditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return auditEntry{}
	}
	return m.entries[len(m.entries)-1]
}

type fixture struct {
	svc          *Service
	churches     *fakeChurches
	applications *fakeApplications
	events       *fakeEvents
	inventory    *fakeInventory
	files        *fakeFiles
	profiles     *fakeProfiles
	sessions     *fakeSessions
	audit        *mockAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := engine.NewOPAAuthorizer(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAAuthorizer: %v", err)
	}
	f := &fixture{
		churches: &fakeChurches{byID: map[string]*domain.Church{
			"c1": {ID: "c1", Name: "Grace Chapel", Slug: "grace-chapel"},
			"c2": {ID: "c2", Name: "Hope Church", Slug: "hope-church"},
		}},
		applications: &fakeApplications{byID: map[string]*domain.Application{}},
		events:       &fakeEvents{},
		inventory:    &fakeInventory{},
		files:        &fakeFiles{},
		profiles: &fakeProfiles{profiles: []*profiledomain.Profile{
			{ID: "admin-1", Name: "Ada", Role: profiledomain.RoleChurchAdmin, ChurchID: "c1"},
			{ID: "member-1", Name: "Mo", Role: profiledomain.RoleMember, ChurchID: "c1"},
			{ID: "member-2", Name: "Ned", Email: "ned@example.com", Role: profiledomain.RoleMember, ChurchID: "c2"},
			{ID: "pat", Name: "Pat", Email: "pat@example.com", Role: profiledomain.RoleMember},
			{ID: "root", Name: "Root", Email: "root@example.com", Role: profiledomain.RoleSystemAdmin},
		}},
		sessions: &fakeSessions{},
		audit:    &mockAudit{},
	}
	f.svc = NewService(Deps{
		Churches:     f.churches,
		Applications: f.applications,
		Events:       f.events,
		Inventory:    f.inventory,
		Files:        f.files,
		Profiles:     f.profiles,
		Authorizer:   authz,
		Sessions:     f.sessions,
		Audit:        f.audit,
	})
	f.svc.nowF = func() time.Time { return testNow }
	n := 0
	f.svc.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	return f
}

func as(role profiledomain.Role, churchID string) context.Context {
	id := "user-" + string(role)
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{
		SessionID:      "sess-1",
		Identity:       &identitydomain.Identity{ID: id, Email: "user@example.com"},
		Profile:        &profiledomain.Profile{ID: id, Name: "Test User", Role: role, ChurchID: churchID},
		ProfileChecked: true,
	})
}

func anonymous() context.Context {
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{})
}

func noProfile() context.Context {
	return middleware.WithPrincipal(context.Background(), &middleware.Principal{
		Identity:       &identitydomain.Identity{ID: "u-new", Email: "new@example.com"},
		ProfileChecked: true,
	})
}

var errBoom = errors.New("boom")
