// Package service runs the church dashboard operations. Every method reads the caller from
// the request context, checks the policy engine and scopes data to one church.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"church-portal/internal/audit"
	"church-portal/internal/church/domain"
	"church-portal/internal/church/repository"
	"church-portal/internal/platform/rbac"
	"church-portal/internal/policy/engine"
	profiledomain "church-portal/internal/profile/domain"
	"church-portal/internal/server/middleware"
)

// upcomingLimit is how many upcoming events the member dashboard shows.
const upcomingLimit = 5

// ProfileReader reads church members and applicants. Implemented by profile/repository.PostgresRepository.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*profiledomain.Profile, error)
	ListByChurch(ctx context.Context, churchID string) ([]*profiledomain.Profile, error)
	ListByEmail(ctx context.Context, email string) ([]*profiledomain.Profile, error)
	CountByChurch(ctx context.Context, churchID string) (int, error)
}

// SessionInvalidator refreshes cached auth state after a user's profile changes.
// Implemented by authstate.Registry.
type SessionInvalidator interface {
	InvalidateUser(userID string) int
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateUser(string) int { return 0 }

// Deps wires a Service. Sessions, Audit and Logger are optional.
type Deps struct {
	Churches     repository.ChurchRepository
	Applications repository.ApplicationRepository
	Events       repository.EventRepository
	Inventory    repository.InventoryRepository
	Files        repository.FileRepository
	Profiles     ProfileReader
	Authorizer   engine.Authorizer
	Sessions     SessionInvalidator
	Audit        audit.AuditLogger
	Logger       *zap.Logger
}

// Service implements the church-admin and member dashboards and the application workflow.
type Service struct {
	deps  Deps
	nowF  func() time.Time
	newID func() string
}

// NewService returns a Service.
func NewService(deps Deps) *Service {
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sessions == nil {
		deps.Sessions = nopInvalidator{}
	}
	return &Service{
		deps:  deps,
		nowF:  func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Overview is the church-admin home.
type Overview struct {
	Church *domain.Church
	Stats  domain.Stats
}

// MemberOverview is the member home.
type MemberOverview struct {
	Profile  *profiledomain.Profile
	Church   *domain.Church
	Upcoming []*domain.Event
}

// scope resolves which church the caller acts on and checks action against it.
// System admins may name any church; everyone else acts on their own.
func (s *Service) scope(ctx context.Context, requested string, action engine.Action, target profiledomain.Role) (*middleware.Principal, string, error) {
	p, err := rbac.RequireProfile(ctx)
	if err != nil {
		return nil, "", err
	}
	churchID := p.ChurchID()
	if requested != "" && p.Profile.Role.IsSystemAdmin() {
		churchID = requested
	}
	if churchID == "" {
		return nil, "", rbac.ErrChurchRequired
	}
	res := engine.Resource{ChurchID: churchID, TargetRole: target}
	if err := rbac.Authorize(ctx, s.deps.Authorizer, action, res); err != nil {
		return nil, "", err
	}
	return p, churchID, nil
}

// adminScope is scope for the admin dashboard pages, which members may not open even where
// the policy lets them read the same data.
func (s *Service) adminScope(ctx context.Context, requested string, action engine.Action) (*middleware.Principal, string, error) {
	if _, err := rbac.RequireChurchAdmin(ctx); err != nil {
		return nil, "", err
	}
	return s.scope(ctx, requested, action, "")
}

// Overview returns the church and its dashboard counts.
func (s *Service) Overview(ctx context.Context, requested string) (*Overview, error) {
	_, churchID, err := s.adminScope(ctx, requested, engine.ActionChurchRead)
	if err != nil {
		return nil, err
	}
	c, err := s.church(ctx, churchID)
	if err != nil {
		return nil, err
	}
	out := &Overview{Church: c}
	if out.Stats.TotalMembers, err = s.deps.Profiles.CountByChurch(ctx, churchID); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	if out.Stats.UpcomingEvents, err = s.deps.Events.CountUpcoming(ctx, churchID, s.nowF()); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if out.Stats.InventoryItems, err = s.deps.Inventory.CountByChurch(ctx, churchID); err != nil {
		return nil, fmt.Errorf("count inventory: %w", err)
	}
	if out.Stats.Files, err = s.deps.Files.CountByChurch(ctx, churchID); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	return out, nil
}

// MemberHome returns the caller's profile, church and the next upcoming events they may see.
func (s *Service) MemberHome(ctx context.Context) (*MemberOverview, error) {
	p, err := rbac.RequireChurchMember(ctx)
	if err != nil {
		return nil, err
	}
	churchID := p.ChurchID()
	if err := rbac.Authorize(ctx, s.deps.Authorizer, engine.ActionEventsList, engine.Resource{ChurchID: churchID}); err != nil {
		return nil, err
	}
	c, err := s.church(ctx, churchID)
	if err != nil {
		return nil, err
	}
	events, err := s.deps.Events.ListUpcoming(ctx, churchID, s.nowF(), upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return &MemberOverview{Profile: p.Profile, Church: c, Upcoming: visibleTo(p.Profile.Role, events)}, nil
}

// Members lists the church's profiles.
func (s *Service) Members(ctx context.Context, requested string) ([]*profiledomain.Profile, error) {
	_, churchID, err := s.scope(ctx, requested, engine.ActionMembersList, "")
	if err != nil {
		return nil, err
	}
	return s.deps.Profiles.ListByChurch(ctx, churchID)
}

// AuthorizeMemberCreate checks that the caller may add an account with role to a church and
// returns the church id the account must be created in.
func (s *Service) AuthorizeMemberCreate(ctx context.Context, requested string, role profiledomain.Role) (string, error) {
	_, churchID, err := s.scope(ctx, requested, engine.ActionMembersCreate, role)
	return churchID, err
}

// Churches lists every church. Only system admins may call it.
func (s *Service) Churches(ctx context.Context) ([]*domain.Church, error) {
	p, err := rbac.RequireProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Profile.Role.IsSystemAdmin() {
		return nil, rbac.ErrForbidden
	}
	return s.deps.Churches.List(ctx)
}

// Church returns the church the caller administers.
func (s *Service) Church(ctx context.Context, requested string) (*domain.Church, error) {
	_, churchID, err := s.adminScope(ctx, requested, engine.ActionChurchRead)
	if err != nil {
		return nil, err
	}
	return s.church(ctx, churchID)
}

// UpdateChurch saves the church information form.
func (s *Service) UpdateChurch(ctx context.Context, requested string, in ChurchInput) (*domain.Church, error) {
	p, churchID, err := s.scope(ctx, requested, engine.ActionChurchUpdate, "")
	if err != nil {
		return nil, err
	}
	c, err := s.church(ctx, churchID)
	if err != nil {
		return nil, err
	}
	if err := in.apply(c); err != nil {
		return nil, err
	}
	if err := s.deps.Churches.Update(ctx, c); err != nil {
		return nil, err
	}
	s.deps.Audit.LogEvent(ctx, churchID, p.UserID(), audit.ActionChurchUpdated, audit.ResourceChurch, nil)
	return c, nil
}

// Events lists the church's events.
func (s *Service) Events(ctx context.Context, requested string) ([]*domain.Event, error) {
	p, churchID, err := s.scope(ctx, requested, engine.ActionEventsList, "")
	if err != nil {
		return nil, err
	}
	events, err := s.deps.Events.ListByChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}
	return visibleTo(p.Profile.Role, events), nil
}

// CreateEvent adds an event to the church.
func (s *Service) CreateEvent(ctx context.Context, requested string, in EventInput) (*domain.Event, error) {
	p, churchID, err := s.scope(ctx, requested, engine.ActionEventsCreate, "")
	if err != nil {
		return nil, err
	}
	e, err := in.build()
	if err != nil {
		return nil, err
	}
	e.ID, e.ChurchID, e.CreatedBy = s.newID(), churchID, p.UserID()
	if err := s.deps.Events.Create(ctx, e); err != nil {
		return nil, err
	}
	s.deps.Audit.LogEvent(ctx, churchID, p.UserID(), audit.ActionEventCreated, audit.ResourceEvent, map[string]string{"event_id": e.ID})
	return e, nil
}

// Inventory lists the church's inventory.
func (s *Service) Inventory(ctx context.Context, requested string) ([]*domain.InventoryItem, error) {
	_, churchID, err := s.scope(ctx, requested, engine.ActionInventoryList, "")
	if err != nil {
		return nil, err
	}
	return s.deps.Inventory.ListByChurch(ctx, churchID)
}

// CreateInventoryItem adds an item to the church's inventory.
func (s *Service) CreateInventoryItem(ctx context.Context, requested string, in InventoryInput) (*domain.InventoryItem, error) {
	p, churchID, err := s.scope(ctx, requested, engine.ActionInventoryCreate, "")
	if err != nil {
		return nil, err
	}
	item, err := in.build()
	if err != nil {
		return nil, err
	}
	item.ID, item.ChurchID = s.newID(), churchID
	if err := s.deps.Inventory.Create(ctx, item); err != nil {
		return nil, err
	}
	s.deps.Audit.LogEvent(ctx, churchID, p.UserID(), audit.ActionInventoryCreated, audit.ResourceInventory, map[string]string{"item_id": item.ID})
	return item, nil
}

// Files lists the church's file metadata.
func (s *Service) Files(ctx context.Context, requested string) ([]*domain.File, error) {
	_, churchID, err := s.scope(ctx, requested, engine.ActionFilesList, "")
	if err != nil {
		return nil, err
	}
	return s.deps.Files.ListByChurch(ctx, churchID)
}

// RegisterFile records metadata for a file stored in the church's bucket.
func (s *Service) RegisterFile(ctx context.Context, requested string, in FileInput) (*domain.File, error) {
	p, churchID, err := s.scope(ctx, requested, engine.ActionFilesCreate, "")
	if err != nil {
		return nil, err
	}
	f, err := in.build()
	if err != nil {
		return nil, err
	}
	f.ID, f.ChurchID, f.UploadedBy = s.newID(), churchID, p.UserID()
	if err := s.deps.Files.Create(ctx, f); err != nil {
		return nil, err
	}
	s.deps.Audit.LogEvent(ctx, churchID, p.UserID(), audit.ActionFileRegistered, audit.ResourceFile, map[string]string{"file_id": f.ID})
	return f, nil
}

func (s *Service) church(ctx context.Context, id string) (*domain.Church, error) {
	c, err := s.deps.Churches.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get church: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("church %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func visibleTo(role profiledomain.Role, events []*domain.Event) []*domain.Event {
	if profiledomain.HasAdminCapability(role) {
		return events
	}
	out := events[:0:0]
	for _, e := range events {
		if e.VisibleToMembers() {
			out = append(out, e)
		}
	}
	return out
}
