package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"church-portal/internal/audit"
	"church-portal/internal/church/domain"
	"church-portal/internal/platform/rbac"
	"church-portal/internal/policy/engine"
	profiledomain "church-portal/internal/profile/domain"
)

func TestOverview_Scope(t *testing.T) {
	testCases := []struct {
		name      string
		ctx       context.Context
		requested string
		wantErr   error
		wantID    string
	}{
		{"anonymous", anonymous(), "", rbac.ErrUnauthenticated, ""},
		{"no profile", noProfile(), "", rbac.ErrProfileRequired, ""},
		{"member", as(profiledomain.RoleMember, "c1"), "", rbac.ErrForbidden, ""},
		{"admin without church", as(profiledomain.RoleChurchAdmin, ""), "", rbac.ErrChurchRequired, ""},
		{"system admin without church", as(profiledomain.RoleSystemAdmin, ""), "", rbac.ErrChurchRequired, ""},
		{"system admin picks church", as(profiledomain.RoleSystemAdmin, ""), "c2", nil, "c2"},
		{"church admin cannot switch church", as(profiledomain.RoleChurchAdmin, "c1"), "c2", nil, "c1"},
		{"church admin own church", as(profiledomain.RoleChurchAdmin, "c1"), "", nil, "c1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			got, err := f.svc.Overview(tc.ctx, tc.requested)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Overview error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Overview: %v", err)
			}
			if got.Church.ID != tc.wantID {
				t.Errorf("church = %q, want %q", got.Church.ID, tc.wantID)
			}
		})
	}
}

func TestOverview_Stats(t *testing.T) {
	f := newFixture(t)
	f.events.events = []*domain.Event{
		{ID: "e1", ChurchID: "c1", StartTime: testNow.Add(24 * time.Hour)},
		{ID: "e2", ChurchID: "c1", StartTime: testNow.Add(-24 * time.Hour)},
		{ID: "e3", ChurchID: "c2", StartTime: testNow.Add(24 * time.Hour)},
	}
	f.inventory.items = []*domain.InventoryItem{{ID: "i1", ChurchID: "c1"}}
	f.files.files = []*domain.File{{ID: "f1", ChurchID: "c1"}, {ID: "f2", ChurchID: "c1"}}

	got, err := f.svc.Overview(as(profiledomain.RoleChurchAdmin, "c1"), "")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	want := domain.Stats{TotalMembers: 2, UpcomingEvents: 1, InventoryItems: 1, Files: 2}
	if got.Stats != want {
		t.Errorf("Stats = %+v, want %+v", got.Stats, want)
	}
}

func TestOverview_CountError(t *testing.T) {
	f := newFixture(t)
	f.files.countErr = errBoom
	_, err := f.svc.Overview(as(profiledomain.RoleChurchAdmin, "c1"), "")
	if !errors.Is(err, errBoom) {
		t.Errorf("Overview error = %v, want %v", err, errBoom)
	}
}

func TestOverview_MissingChurch(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Overview(as(profiledomain.RoleChurchAdmin, "gone"), "")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Overview error = %v, want ErrNotFound", err)
	}
}

func TestMembers(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Members(as(profiledomain.RoleChurchAdmin, "c1"), "")
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(Members) = %d, want 2", len(got))
	}

	if _, err := f.svc.Members(as(profiledomain.RoleMember, "c1"), ""); !errors.Is(err, engine.ErrDenied) {
		t.Errorf("member Members error = %v, want ErrDenied", err)
	}
}

func TestAuthorizeMemberCreate(t *testing.T) {
	testCases := []struct {
		name       string
		ctx        context.Context
		requested  string
		role       profiledomain.Role
		wantChurch string
		wantErr    error
	}{
		{"church admin adds member", as(profiledomain.RoleChurchAdmin, "c1"), "", profiledomain.RoleMember, "c1", nil},
		{"church admin cannot add admin", as(profiledomain.RoleChurchAdmin, "c1"), "", profiledomain.RoleChurchAdmin, "", engine.ErrDenied},
		{"member cannot add", as(profiledomain.RoleMember, "c1"), "", profiledomain.RoleMember, "", engine.ErrDenied},
		{"system admin adds admin elsewhere", as(profiledomain.RoleSystemAdmin, ""), "c2", profiledomain.RoleChurchAdmin, "c2", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			got, err := f.svc.AuthorizeMemberCreate(tc.ctx, tc.requested, tc.role)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AuthorizeMemberCreate: %v", err)
			}
			if got != tc.wantChurch {
				t.Errorf("church = %q, want %q", got, tc.wantChurch)
			}
		})
	}
}

func TestChurches(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Churches(as(profiledomain.RoleSystemAdmin, ""))
	if err != nil {
		t.Fatalf("Churches: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(Churches) = %d, want 2", len(got))
	}
	if _, err := f.svc.Churches(as(profiledomain.RoleChurchAdmin, "c1")); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("church admin Churches error = %v, want ErrForbidden", err)
	}
}

func TestUpdateChurch(t *testing.T) {
	f := newFixture(t)
	ctx := as(profiledomain.RoleChurchAdmin, "c1")

	_, err := f.svc.UpdateChurch(ctx, "", ChurchInput{Name: "Grace", State: "Texas"})
	if ve, ok := domain.AsValidationError(err); !ok || ve.Field != "state" {
		t.Fatalf("UpdateChurch error = %v, want state validation error", err)
	}
	if _, err := f.svc.UpdateChurch(ctx, "", ChurchInput{Name: "  "}); err == nil {
		t.Fatal("UpdateChurch should reject an empty name")
	}

	got, err := f.svc.UpdateChurch(ctx, "", ChurchInput{Name: " Grace Chapel East ", City: "Austin", State: "tx"})
	if err != nil {
		t.Fatalf("UpdateChurch: %v", err)
	}
	if got.Name != "Grace Chapel East" || got.State != "TX" || got.City != "Austin" {
		t.Errorf("church = %+v", got)
	}
	if got.Slug != "grace-chapel" {
		t.Errorf("Slug = %q, want unchanged %q", got.Slug, "grace-chapel")
	}
	if len(f.churches.updated) != 1 {
		t.Errorf("updates = %d, want 1", len(f.churches.updated))
	}
	if a := f.audit.last(); a.action != audit.ActionChurchUpdated || a.churchID != "c1" {
		t.Errorf("audit = %+v", a)
	}

	if _, err := f.svc.UpdateChurch(as(profiledomain.RoleMember, "c1"), "", ChurchInput{Name: "x"}); !errors.Is(err, engine.ErrDenied) {
		t.Errorf("member UpdateChurch error = %v, want ErrDenied", err)
	}
}

func TestEvents_VisibilityByRole(t *testing.T) {
	f := newFixture(t)
	f.events.events = []*domain.Event{
		{ID: "pub", ChurchID: "c1", Visibility: domain.VisibilityPublic, StartTime: testNow.Add(time.Hour)},
		{ID: "mem", ChurchID: "c1", Visibility: domain.VisibilityMembers, StartTime: testNow.Add(time.Hour)},
		{ID: "adm", ChurchID: "c1", Visibility: domain.VisibilityAdmin, StartTime: testNow.Add(time.Hour)},
	}

	admin, err := f.svc.Events(as(profiledomain.RoleChurchAdmin, "c1"), "")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(admin) != 3 {
		t.Errorf("admin sees %d events, want 3", len(admin))
	}

	member, err := f.svc.Events(as(profiledomain.RoleMember, "c1"), "")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(member) != 2 {
		t.Errorf("member sees %d events, want 2", len(member))
	}
	for _, e := range member {
		if e.ID == "adm" {
			t.Error("member should not see admin-only event")
		}
	}
}

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := as(profiledomain.RoleChurchAdmin, "c1")

	testCases := []struct {
		name  string
		in    EventInput
		field string
	}{
		{"missing title", EventInput{Start: "2026-03-05T10:00"}, "title"},
		{"missing start", EventInput{Title: "Service"}, "start"},
		{"unknown type", EventInput{Title: "Service", Start: "2026-03-05T10:00", Type: "party"}, "type"},
		{"end before start", EventInput{Title: "Service", Start: "2026-03-05T10:00", End: "2026-03-05T09:00"}, "end"},
		{"unknown visibility", EventInput{Title: "Service", Start: "2026-03-05T10:00", Visibility: "secret"}, "visibility"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateEvent(ctx, "", tc.in)
			ve, ok := domain.AsValidationError(err)
			if !ok {
				t.Fatalf("CreateEvent error = %v, want validation error", err)
			}
			if ve.Field != tc.field {
				t.Errorf("Field = %q, want %q", ve.Field, tc.field)
			}
		})
	}

	e, err := f.svc.CreateEvent(ctx, "", EventInput{
		Title:      "Sunday Service",
		Type:       "service",
		Start:      "2026-03-08T10:00",
		End:        "2026-03-08T11:30",
		Visibility: "public",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if e.ChurchID != "c1" || e.CreatedBy != "user-CHURCH_ADMIN" || e.ID == "" {
		t.Errorf("event = %+v", e)
	}
	if e.Type != domain.EventService || e.Visibility != domain.VisibilityPublic {
		t.Errorf("Type/Visibility = %s/%s", e.Type, e.Visibility)
	}
	if e.EndTime == nil || e.EndTime.Sub(e.StartTime) != 90*time.Minute {
		t.Errorf("EndTime = %v", e.EndTime)
	}
	if len(f.events.events) != 1 {
		t.Errorf("stored events = %d, want 1", len(f.events.events))
	}
	if a := f.audit.last(); a.action != audit.ActionEventCreated || a.metadata["event_id"] != e.ID {
		t.Errorf("audit = %+v", a)
	}
}

func TestMemberHome(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		f.events.events = append(f.events.events, &domain.Event{
			ID:         "e" + string(rune('a'+i)),
			ChurchID:   "c1",
			StartTime:  testNow.Add(time.Duration(i+1) * time.Hour),
			Visibility: domain.VisibilityMembers,
		})
	}

	got, err := f.svc.MemberHome(as(profiledomain.RoleMember, "c1"))
	if err != nil {
		t.Fatalf("MemberHome: %v", err)
	}
	if got.Church.Name != "Grace Chapel" {
		t.Errorf("Church = %q", got.Church.Name)
	}
	if len(got.Upcoming) != upcomingLimit {
		t.Errorf("len(Upcoming) = %d, want %d", len(got.Upcoming), upcomingLimit)
	}
	if got.Profile == nil || got.Profile.Role != profiledomain.RoleMember {
		t.Errorf("Profile = %+v", got.Profile)
	}

	if _, err := f.svc.MemberHome(as(profiledomain.RoleMember, "")); !errors.Is(err, rbac.ErrChurchRequired) {
		t.Errorf("MemberHome without church error = %v, want ErrChurchRequired", err)
	}
}

func TestCreateInventoryItem(t *testing.T) {
	f := newFixture(t)
	ctx := as(profiledomain.RoleChurchAdmin, "c1")

	item, err := f.svc.CreateInventoryItem(ctx, "", InventoryInput{
		Name:        "Folding chairs",
		Quantity:    "40",
		Condition:   "Fair",
		Value:       "$12.50",
		LastChecked: "2026-02-01",
	})
	if err != nil {
		t.Fatalf("CreateInventoryItem: %v", err)
	}
	if item.Quantity != 40 || item.Condition != domain.ConditionFair {
		t.Errorf("item = %+v", item)
	}
	if item.ValueCents == nil || *item.ValueCents != 1250 {
		t.Errorf("ValueCents = %v, want 1250", item.ValueCents)
	}
	if item.LastChecked == nil {
		t.Error("LastChecked should be set")
	}

	badCases := []InventoryInput{
		{Name: ""},
		{Name: "Chairs", Quantity: "many"},
		{Name: "Chairs", Quantity: "-1"},
		{Name: "Chairs", Condition: "broken"},
		{Name: "Chairs", Value: "free"},
		{Name: "Chairs", LastChecked: "yesterday"},
	}
	for _, in := range badCases {
		if _, err := f.svc.CreateInventoryItem(ctx, "", in); err == nil {
			t.Errorf("CreateInventoryItem(%+v) should fail", in)
		}
	}
	if len(f.inventory.items) != 1 {
		t.Errorf("stored items = %d, want 1", len(f.inventory.items))
	}
}

func TestRegisterFile(t *testing.T) {
	f := newFixture(t)
	ctx := as(profiledomain.RoleChurchAdmin, "c1")

	doc, err := f.svc.RegisterFile(ctx, "", FileInput{Name: "Bulletin.pdf", Size: "2048"})
	if err != nil {
		t.Fatalf("RegisterFile: %v", err)
	}
	if doc.Kind != domain.KindDocument || doc.SizeBytes == nil || *doc.SizeBytes != 2048 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.UploadedBy != "user-CHURCH_ADMIN" {
		t.Errorf("UploadedBy = %q", doc.UploadedBy)
	}

	folder, err := f.svc.RegisterFile(ctx, "", FileInput{Name: "Sermons", Kind: "folder", Size: "10"})
	if err != nil {
		t.Fatalf("RegisterFile: %v", err)
	}
	if folder.SizeBytes != nil {
		t.Errorf("folder SizeBytes = %v, want nil", *folder.SizeBytes)
	}

	if _, err := f.svc.RegisterFile(ctx, "", FileInput{Name: "x", Kind: "spreadsheet"}); err == nil {
		t.Error("RegisterFile should reject an unknown kind")
	}
	if _, err := f.svc.RegisterFile(as(profiledomain.RoleMember, "c1"), "", FileInput{Name: "x"}); !errors.Is(err, engine.ErrDenied) {
		t.Errorf("member RegisterFile error = %v, want ErrDenied", err)
	}
}
