package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"church-portal/internal/access"
	"church-portal/internal/authstate"
	"church-portal/internal/server/middleware"
)

func (h *Handler) memberHome(c *gin.Context) {
	p := h.newPage(c, "My church")
	if p.Setup != nil {
		h.render(c, http.StatusOK, "setup.html", p)
		return
	}
	home, err := h.churches.MemberHome(c.Request.Context())
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Data = home
	h.render(c, http.StatusOK, "member_home.html", p)
}

type identityJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type profileJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ChurchID   string `json:"church_id,omitempty"`
	ChurchName string `json:"church_name,omitempty"`
	Home       string `json:"home"`
}

type authStateJSON struct {
	Identity *identityJSON `json:"identity"`
	Profile  *profileJSON  `json:"profile"`
	Loading  bool          `json:"loading"`
}

// authState returns the session observer's snapshot for browser scripts.
func (h *Handler) authState(c *gin.Context) {
	pr, ok := middleware.PrincipalFrom(c)
	if !ok || !pr.Authenticated() {
		c.JSON(http.StatusOK, authStateJSON{})
		return
	}
	var snap authstate.Snapshot
	if h.state != nil {
		snap = h.state.Snapshot(c.Request.Context(), pr.SessionID)
	}
	if snap.Identity == nil {
		snap.Identity = pr.Identity
	}
	out := authStateJSON{
		Identity: &identityJSON{ID: snap.Identity.ID, Email: snap.Identity.Email},
		Loading:  snap.Loading,
	}
	if prof := snap.Profile; prof != nil {
		out.Profile = &profileJSON{
			ID:         prof.ID,
			Name:       prof.DisplayName(),
			Email:      prof.Email,
			Role:       string(prof.Role),
			ChurchID:   prof.ChurchID,
			ChurchName: prof.ChurchName,
			Home:       access.RoleHome(prof.Role),
		}
	}
	c.JSON(http.StatusOK, out)
}
