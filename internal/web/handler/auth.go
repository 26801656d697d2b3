package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"church-portal/internal/access"
	identityservice "church-portal/internal/identity/service"
	profiledomain "church-portal/internal/profile/domain"
	"church-portal/internal/server/middleware"
)

const confirmEmailMessage = "Account created. Check your email to confirm your address, then sign in."

type loginForm struct {
	Email string
}

type registerForm struct {
	Name  string
	Email string
	// Action is the form target, which also fixes the role.
	Action string
	Admin  bool
}

func (h *Handler) landing(c *gin.Context) {
	h.render(c, http.StatusOK, "landing.html", h.newPage(c, "Church Portal"))
}

func (h *Handler) loginPage(c *gin.Context) {
	p := h.newPage(c, "Sign in")
	p.Message = c.Query("message")
	p.Form = loginForm{}
	h.render(c, http.StatusOK, "login.html", p)
}

func (h *Handler) login(c *gin.Context) {
	email := c.PostForm("email")
	p := h.newPage(c, "Sign in")
	p.Form = loginForm{Email: email}

	res, err := h.auth.SignIn(c.Request.Context(), email, c.PostForm("password"))
	if err != nil {
		h.fail(c, err, "login.html", p)
		return
	}
	h.cookie.Set(c.Writer, res.Session.ID, res.Session.ExpiresAt)
	c.Redirect(http.StatusFound, h.homeAfterSignIn(c, res.Session.ID))
}

// homeAfterSignIn waits for the new session's observer to load the profile and returns
// its role home. Without a profile the member home renders the setup advisory.
func (h *Handler) homeAfterSignIn(c *gin.Context, sessionID string) string {
	if h.state == nil {
		return access.MemberHomePath
	}
	snap := h.state.Snapshot(c.Request.Context(), sessionID)
	if snap.Profile == nil {
		return access.MemberHomePath
	}
	return access.RoleHome(snap.Profile.Role)
}

func (h *Handler) registerPage(c *gin.Context) {
	p := h.newPage(c, "Create an account")
	p.Form = registerForm{Action: "/register"}
	h.render(c, http.StatusOK, "register.html", p)
}

func (h *Handler) adminRegisterPage(c *gin.Context) {
	p := h.newPage(c, "Register as a church administrator")
	p.Form = registerForm{Action: "/admin-register", Admin: true}
	h.render(c, http.StatusOK, "register.html", p)
}

func (h *Handler) register(c *gin.Context) {
	h.signUp(c, profiledomain.RoleMember, registerForm{Action: "/register"}, "Create an account")
}

func (h *Handler) adminRegister(c *gin.Context) {
	h.signUp(c, profiledomain.RoleChurchAdmin, registerForm{Action: "/admin-register", Admin: true}, "Register as a church administrator")
}

func (h *Handler) signUp(c *gin.Context, role profiledomain.Role, form registerForm, title string) {
	form.Name = c.PostForm("name")
	form.Email = c.PostForm("email")
	p := h.newPage(c, title)
	p.Form = form

	res, err := h.auth.SignUp(c.Request.Context(), identityservice.SignUpInput{
		Name:            form.Name,
		Email:           form.Email,
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirm_password"),
		Role:            role,
	})
	if err != nil {
		h.fail(c, err, "register.html", p)
		return
	}
	if res.Session == nil {
		c.Redirect(http.StatusFound, access.LoginPath+"?message="+url.QueryEscape(confirmEmailMessage))
		return
	}
	h.cookie.Set(c.Writer, res.Session.ID, res.Session.ExpiresAt)
	c.Redirect(http.StatusFound, h.homeAfterSignIn(c, res.Session.ID))
}

func (h *Handler) logout(c *gin.Context) {
	var sessionID string
	if pr, ok := middleware.PrincipalFrom(c); ok {
		sessionID = pr.SessionID
	}
	if err := h.auth.SignOut(c.Request.Context(), sessionID); err != nil {
		h.logger.Warn("sign out failed", zap.Error(err))
	}
	h.cookie.Clear(c.Writer)
	c.Redirect(http.StatusFound, access.LoginPath+"?message="+url.QueryEscape("You have been signed out."))
}
