package handler

import (
	"context"
	"net/http"
	"time"

	"church-portal/internal/authstate"
	churchdomain "church-portal/internal/church/domain"
	churchservice "church-portal/internal/church/service"
	identitydomain "church-portal/internal/identity/domain"
	identityservice "church-portal/internal/identity/service"
	profiledomain "church-portal/internal/profile/domain"
	sessiondomain "church-portal/internal/session/domain"
)

type fakeAuth struct {
	signInErr   error
	signUpErr   error
	signUpNoSes bool
	createErr   error

	signUps      []identityservice.SignUpInput
	created      []identityservice.SignUpInput
	createdActor string
	signedOut    []string
}

func (f *fakeAuth) SignIn(_ context.Context, email, _ string) (*identityservice.SignInResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &identityservice.SignInResult{
		Session:  &sessiondomain.Session{ID: "sess-new", ExpiresAt: time.Now().Add(time.Hour)},
		Identity: identitydomain.Identity{ID: "u1", Email: email},
	}, nil
}

func (f *fakeAuth) SignUp(_ context.Context, in identityservice.SignUpInput) (*identityservice.SignUpResult, error) {
	f.signUps = append(f.signUps, in)
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	res := &identityservice.SignUpResult{Identity: identitydomain.Identity{ID: "u2", Email: in.Email}}
	if !f.signUpNoSes {
		res.Session = &sessiondomain.Session{ID: "sess-up", ExpiresAt: time.Now().Add(time.Hour)}
	}
	return res, nil
}

func (f *fakeAuth) CreateAccount(_ context.Context, actorID string, in identityservice.SignUpInput) (*identitydomain.Identity, error) {
	f.createdActor = actorID
	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &identitydomain.Identity{ID: "u3", Email: in.Email}, nil
}

func (f *fakeAuth) SignOut(_ context.Context, sessionID string) error {
	f.signedOut = append(f.signedOut, sessionID)
	return nil
}

// fakeChurches returns err from every call when set, otherwise canned data.
type fakeChurches struct {
	err          error
	createErr    error
	overview     *churchservice.Overview
	churchList   []*churchdomain.Church
	memberHome   *churchservice.MemberOverview
	members      []*profiledomain.Profile
	memberChurch string
	open         []*churchservice.ApplicationReview
	approval     *churchservice.ApprovalResult

	requested    []string
	events       []churchservice.EventInput
	applications []churchservice.ApplicationInput
	approved     []string
	rejected     []string
}

func (f *fakeChurches) Overview(_ context.Context, requested string) (*churchservice.Overview, error) {
	f.requested = append(f.requested, requested)
	return f.overview, f.err
}

func (f *fakeChurches) MemberHome(context.Context) (*churchservice.MemberOverview, error) {
	return f.memberHome, f.err
}

func (f *fakeChurches) Members(_ context.Context, requested string) ([]*profiledomain.Profile, error) {
	f.requested = append(f.requested, requested)
	return f.members, f.err
}

func (f *fakeChurches) AuthorizeMemberCreate(_ context.Context, requested string, _ profiledomain.Role) (string, error) {
	f.requested = append(f.requested, requested)
	return f.memberChurch, f.err
}

func (f *fakeChurches) Churches(context.Context) ([]*churchdomain.Church, error) {
	return f.churchList, f.err
}

func (f *fakeChurches) Church(context.Context, string) (*churchdomain.Church, error) {
	return &churchdomain.Church{ID: "c1", Name: "Grace Chapel"}, f.err
}

func (f *fakeChurches) UpdateChurch(_ context.Context, _ string, in churchservice.ChurchInput) (*churchdomain.Church, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &churchdomain.Church{ID: "c1", Name: in.Name}, f.err
}

func (f *fakeChurches) Events(context.Context, string) ([]*churchdomain.Event, error) {
	return nil, f.err
}

func (f *fakeChurches) CreateEvent(_ context.Context, _ string, in churchservice.EventInput) (*churchdomain.Event, error) {
	f.events = append(f.events, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &churchdomain.Event{ID: "e1", Title: in.Title}, nil
}

func (f *fakeChurches) Inventory(context.Context, string) ([]*churchdomain.InventoryItem, error) {
	return nil, f.err
}

func (f *fakeChurches) CreateInventoryItem(_ context.Context, _ string, in churchservice.InventoryInput) (*churchdomain.InventoryItem, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &churchdomain.InventoryItem{ID: "i1", Name: in.Name}, nil
}

func (f *fakeChurches) Files(context.Context, string) ([]*churchdomain.File, error) {
	return nil, f.err
}

func (f *fakeChurches) RegisterFile(_ context.Context, _ string, in churchservice.FileInput) (*churchdomain.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &churchdomain.File{ID: "f1", Name: in.Name}, nil
}

func (f *fakeChurches) SubmitApplication(_ context.Context, in churchservice.ApplicationInput) (*churchdomain.Application, error) {
	f.applications = append(f.applications, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &churchdomain.Application{ID: "app-1", ChurchName: in.ChurchName, ApplicantEmail: in.ApplicantEmail}, nil
}

func (f *fakeChurches) OpenApplications(context.Context) ([]*churchservice.ApplicationReview, error) {
	return f.open, f.err
}

func (f *fakeChurches) ApproveApplication(_ context.Context, id, _ string) (*churchservice.ApprovalResult, error) {
	f.approved = append(f.approved, id)
	if f.err != nil {
		return nil, f.err
	}
	if f.approval != nil {
		return f.approval, nil
	}
	return &churchservice.ApprovalResult{Church: &churchdomain.Church{ID: "c9", Name: "New Life"}, AdminAssigned: true}, nil
}

func (f *fakeChurches) RejectApplication(_ context.Context, id, _ string) error {
	f.rejected = append(f.rejected, id)
	return f.err
}

type fakeState struct {
	snap      authstate.Snapshot
	requested []string
}

func (f *fakeState) Snapshot(_ context.Context, sessionID string) authstate.Snapshot {
	f.requested = append(f.requested, sessionID)
	return f.snap
}

type fakeCookie struct {
	setID   string
	cleared bool
}

func (f *fakeCookie) Set(_ http.ResponseWriter, id string, _ time.Time) { f.setID = id }

func (f *fakeCookie) Clear(http.ResponseWriter) { f.cleared = true }
