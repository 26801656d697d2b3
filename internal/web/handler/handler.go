// Package handler serves the HTML pages and the auth-state API over Gin.
package handler

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"church-portal/internal/authstate"
	churchdomain "church-portal/internal/church/domain"
	churchservice "church-portal/internal/church/service"
	identitydomain "church-portal/internal/identity/domain"
	identityservice "church-portal/internal/identity/service"
	profiledomain "church-portal/internal/profile/domain"
)

// Authenticator runs the credential flows. Implemented by identity/service.AuthService.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*identityservice.SignInResult, error)
	SignUp(ctx context.Context, in identityservice.SignUpInput) (*identityservice.SignUpResult, error)
	CreateAccount(ctx context.Context, actorID string, in identityservice.SignUpInput) (*identitydomain.Identity, error)
	SignOut(ctx context.Context, sessionID string) error
}

// ChurchService runs the dashboard operations. Implemented by church/service.Service.
type ChurchService interface {
	Overview(ctx context.Context, requested string) (*churchservice.Overview, error)
	MemberHome(ctx context.Context) (*churchservice.MemberOverview, error)
	Members(ctx context.Context, requested string) ([]*profiledomain.Profile, error)
	AuthorizeMemberCreate(ctx context.Context, requested string, role profiledomain.Role) (string, error)
	Churches(ctx context.Context) ([]*churchdomain.Church, error)
	Church(ctx context.Context, requested string) (*churchdomain.Church, error)
	UpdateChurch(ctx context.Context, requested string, in churchservice.ChurchInput) (*churchdomain.Church, error)
	Events(ctx context.Context, requested string) ([]*churchdomain.Event, error)
	CreateEvent(ctx context.Context, requested string, in churchservice.EventInput) (*churchdomain.Event, error)
	Inventory(ctx context.Context, requested string) ([]*churchdomain.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, requested string, in churchservice.InventoryInput) (*churchdomain.InventoryItem, error)
	Files(ctx context.Context, requested string) ([]*churchdomain.File, error)
	RegisterFile(ctx context.Context, requested string, in churchservice.FileInput) (*churchdomain.File, error)
	SubmitApplication(ctx context.Context, in churchservice.ApplicationInput) (*churchdomain.Application, error)
	OpenApplications(ctx context.Context) ([]*churchservice.ApplicationReview, error)
	ApproveApplication(ctx context.Context, id, notes string) (*churchservice.ApprovalResult, error)
	RejectApplication(ctx context.Context, id, reason string) error
}

// AuthState exposes the per-session observer. Implemented by authstate.Registry.
type AuthState interface {
	Snapshot(ctx context.Context, sessionID string) authstate.Snapshot
}

// SessionCookie writes the session cookie. Implemented by session/service.Cookie.
type SessionCookie interface {
	Set(w http.ResponseWriter, id string, expiresAt time.Time)
	Clear(w http.ResponseWriter)
}

// Deps wires a Handler. Logger is optional.
type Deps struct {
	Auth      Authenticator
	Churches  ChurchService
	AuthState AuthState
	Cookie    SessionCookie
	Logger    *zap.Logger
}

// Handler serves the web pages.
type Handler struct {
	auth     Authenticator
	churches ChurchService
	state    AuthState
	cookie   SessionCookie
	logger   *zap.Logger
}

// New returns a Handler.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handler{
		auth:     deps.Auth,
		churches: deps.Churches,
		state:    deps.AuthState,
		cookie:   deps.Cookie,
		logger:   deps.Logger,
	}
}

// RegisterRoutes installs the page templates and routes on r. Access control runs before
// these handlers in the guard middleware.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(templates)
	static, _ := fs.Sub(staticFS, "static")
	r.StaticFS("/static", http.FS(static))

	r.GET("/", h.landing)
	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.GET("/register", h.registerPage)
	r.POST("/register", h.register)
	r.GET("/admin-register", h.adminRegisterPage)
	r.POST("/admin-register", h.adminRegister)
	r.GET("/apply-church", h.applyPage)
	r.POST("/apply-church", h.apply)
	r.POST("/logout", h.logout)

	church := r.Group("/church")
	church.GET("", h.churchOverview)
	church.GET("/members", h.members)
	church.GET("/members/add", h.addMemberPage)
	church.POST("/members/add", h.addMember)
	church.GET("/events", h.events)
	church.POST("/events", h.createEvent)
	church.GET("/inventory", h.inventory)
	church.POST("/inventory", h.createInventoryItem)
	church.GET("/files", h.files)
	church.POST("/files", h.registerFile)
	church.GET("/information", h.information)
	church.POST("/information", h.updateInformation)
	church.GET("/applications", h.applications)
	church.POST("/applications/:id/approve", h.approveApplication)
	church.POST("/applications/:id/reject", h.rejectApplication)

	r.GET("/member", h.memberHome)
	r.GET("/api/auth/state", h.authState)
}
