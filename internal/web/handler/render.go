package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"church-portal/internal/access"
	churchdomain "church-portal/internal/church/domain"
	identitydomain "church-portal/internal/identity/domain"
	"church-portal/internal/platform/rbac"
	profiledomain "church-portal/internal/profile/domain"
	profileservice "church-portal/internal/profile/service"
	"church-portal/internal/server/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"date":     formatDate,
	"datetime": formatDateTime,
	"money":    formatMoney,
	"deref":    derefInt,
}).ParseFS(templatesFS, "templates/*.html"))

// nav is the signed-in state the layout renders.
type nav struct {
	SignedIn      bool
	Loading       bool
	Name          string
	RoleLabel     string
	Home          string
	IsAdmin       bool
	IsSystemAdmin bool
	ChurchName    string
}

// page is the view passed to every template.
type page struct {
	Title   string
	Nav     nav
	Message string
	Error   string
	// Setup is set when the caller is signed in without a usable profile.
	Setup   *setupAdvisory
	Church  string
	Form    any
	Data    any
}

type setupAdvisory struct {
	Reason string
}

func (h *Handler) newPage(c *gin.Context, title string) *page {
	p := &page{Title: title, Nav: h.navFor(c), Church: requestedChurch(c)}
	if pr, ok := middleware.PrincipalFrom(c); ok && pr.NeedsSetup() {
		p.Setup = &setupAdvisory{Reason: setupReason(pr.ProfileStatus)}
	}
	return p
}

// navFor prefers the profile the guard loaded. Public pages skip that lookup, so they
// read the session's observer instead.
func (h *Handler) navFor(c *gin.Context) nav {
	pr, ok := middleware.PrincipalFrom(c)
	if !ok || !pr.Authenticated() {
		return nav{}
	}
	n := nav{SignedIn: true, Name: pr.Identity.Email, Home: access.MemberHomePath}
	prof := pr.Profile
	if prof == nil && !pr.ProfileChecked && h.state != nil {
		snap := h.state.Snapshot(c.Request.Context(), pr.SessionID)
		prof = snap.Profile
		n.Loading = snap.Loading
	}
	if prof != nil {
		n.Name = prof.DisplayName()
		n.RoleLabel = prof.Role.Label()
		n.Home = access.RoleHome(prof.Role)
		n.IsAdmin = profiledomain.HasAdminCapability(prof.Role)
		n.IsSystemAdmin = prof.Role.IsSystemAdmin()
		n.ChurchName = prof.ChurchName
	}
	return n
}

func setupReason(s profileservice.Status) string {
	if s == profileservice.StatusLookupFailed {
		return "We could not load your profile right now. Please try again shortly."
	}
	return "Your account does not have a profile yet. Ask your church administrator to finish setting it up."
}

func (h *Handler) render(c *gin.Context, status int, name string, p *page) {
	c.HTML(status, name, p)
}

// fail renders err. Validation and credential errors re-render form with a message.
func (h *Handler) fail(c *gin.Context, err error, form string, p *page) {
	if ve, ok := churchdomain.AsValidationError(err); ok && form != "" {
		p.Error = ve.Message
		h.render(c, http.StatusBadRequest, form, p)
		return
	}
	if ce, ok := identitydomain.AsCredentialError(err); ok && form != "" {
		p.Error = ce.Message()
		h.render(c, http.StatusBadRequest, form, p)
		return
	}
	switch {
	case errors.Is(err, identitydomain.ErrBackendUnavailable):
		p.Error = "The service is temporarily unavailable. Please try again in a moment."
		if form == "" {
			form = "error.html"
		}
		h.render(c, http.StatusServiceUnavailable, form, p)
		return
	case errors.Is(err, rbac.ErrUnauthenticated):
		c.Redirect(http.StatusFound, access.LoginPath)
		return
	case errors.Is(err, rbac.ErrProfileRequired):
		if p.Setup == nil {
			p.Setup = &setupAdvisory{Reason: setupReason(profileservice.StatusNotProvisioned)}
		}
		h.render(c, http.StatusOK, "setup.html", p)
		return
	case errors.Is(err, rbac.ErrChurchRequired):
		p.Setup = &setupAdvisory{Reason: "Your profile is not assigned to a church yet."}
		h.render(c, http.StatusOK, "setup.html", p)
		return
	case errors.Is(err, churchdomain.ErrNotFound):
		p.Error = "The requested record was not found."
		h.render(c, http.StatusNotFound, "error.html", p)
		return
	case errors.Is(err, churchdomain.ErrAlreadyReviewed):
		p.Error = "This application has already been reviewed."
		h.render(c, http.StatusConflict, "error.html", p)
		return
	}
	if status := rbac.HTTPStatus(err); status == http.StatusForbidden {
		h.render(c, status, "forbidden.html", p)
		return
	}
	h.logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	p.Error = "Something went wrong. Please try again."
	h.render(c, http.StatusInternalServerError, "error.html", p)
}

// requestedChurch is the church a system admin picked; other roles are scoped by the service.
func requestedChurch(c *gin.Context) string {
	if v := c.PostForm("church_id"); v != "" {
		return v
	}
	return c.Query("church")
}

// withChurch appends the church query of a system admin to path.
func withChurch(c *gin.Context, path string) string {
	if id := requestedChurch(c); id != "" {
		return path + "?church=" + url.QueryEscape(id)
	}
	return path
}

func formatDate(t any) string {
	switch v := t.(type) {
	case time.Time:
		return v.Format("Jan 2, 2006")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("Jan 2, 2006")
	}
	return ""
}

func formatDateTime(t any) string {
	switch v := t.(type) {
	case time.Time:
		return v.Format("Mon Jan 2, 2006 3:04 PM")
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format("Mon Jan 2, 2006 3:04 PM")
	}
	return ""
}

func formatMoney(cents *int64) string {
	if cents == nil {
		return ""
	}
	return fmt.Sprintf("$%d.%02d", *cents/100, *cents%100)
}

func derefInt(n *int) string {
	if n == nil {
		return ""
	}
	return fmt.Sprint(*n)
}
