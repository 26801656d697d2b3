package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	churchdomain "church-portal/internal/church/domain"
	churchservice "church-portal/internal/church/service"
	identityservice "church-portal/internal/identity/service"
	profiledomain "church-portal/internal/profile/domain"
	"church-portal/internal/server/middleware"
)

type overviewView struct {
	Overview *churchservice.Overview
	// Churches is the switcher shown to system admins.
	Churches []*churchdomain.Church
}

type memberForm struct {
	Name     string
	Email    string
	Role     string
	ChurchID string
	Roles    []profiledomain.Role
	Churches []*churchdomain.Church
}

type eventsView struct {
	Events    []*churchdomain.Event
	Types     []churchdomain.EventType
	Form      churchservice.EventInput
	CanCreate bool
}

type inventoryView struct {
	Items      []*churchdomain.InventoryItem
	Conditions []churchdomain.Condition
	Form       churchservice.InventoryInput
}

type filesView struct {
	Files []*churchdomain.File
	Kinds []churchdomain.FileKind
	Form  churchservice.FileInput
}

type informationView struct {
	Church *churchdomain.Church
	States []string
	Saved  bool
}

func (h *Handler) churchOverview(c *gin.Context) {
	ctx := c.Request.Context()
	p := h.newPage(c, "Dashboard")
	if p.Setup != nil {
		h.render(c, http.StatusOK, "setup.html", p)
		return
	}
	view := overviewView{}
	if p.Nav.IsSystemAdmin {
		churches, err := h.churches.Churches(ctx)
		if err != nil {
			h.fail(c, err, "", p)
			return
		}
		view.Churches = churches
		if p.Church == "" {
			p.Data = view
			h.render(c, http.StatusOK, "church_overview.html", p)
			return
		}
	}
	ov, err := h.churches.Overview(ctx, p.Church)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	view.Overview = ov
	p.Data = view
	h.render(c, http.StatusOK, "church_overview.html", p)
}

func (h *Handler) members(c *gin.Context) {
	p := h.newPage(c, "Members")
	members, err := h.churches.Members(c.Request.Context(), p.Church)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Data = members
	h.render(c, http.StatusOK, "church_members.html", p)
}

func (h *Handler) addMemberPage(c *gin.Context) {
	p := h.newPage(c, "Add member")
	form, err := h.memberForm(c, p)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Form = form
	h.render(c, http.StatusOK, "church_member_add.html", p)
}

// memberForm lets a system admin pick role and church; church admins always add members
// to their own church.
func (h *Handler) memberForm(c *gin.Context, p *page) (memberForm, error) {
	form := memberForm{Role: string(profiledomain.RoleMember), ChurchID: p.Church}
	if p.Nav.IsSystemAdmin {
		churches, err := h.churches.Churches(c.Request.Context())
		if err != nil {
			return form, err
		}
		form.Roles = profiledomain.AllRoles()
		form.Churches = churches
	}
	return form, nil
}

func (h *Handler) addMember(c *gin.Context) {
	ctx := c.Request.Context()
	p := h.newPage(c, "Add member")
	form, err := h.memberForm(c, p)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	form.Name = c.PostForm("name")
	form.Email = c.PostForm("email")
	if p.Nav.IsSystemAdmin && c.PostForm("role") != "" {
		form.Role = c.PostForm("role")
	}
	p.Form = form

	role, ok := profiledomain.ParseRole(form.Role)
	if !ok {
		p.Error = "Unknown role."
		h.render(c, http.StatusBadRequest, "church_member_add.html", p)
		return
	}
	churchID, err := h.churches.AuthorizeMemberCreate(ctx, p.Church, role)
	if err != nil {
		h.fail(c, err, "church_member_add.html", p)
		return
	}
	pr, _ := middleware.PrincipalFrom(c)
	_, err = h.auth.CreateAccount(ctx, pr.UserID(), identityservice.SignUpInput{
		Name:            form.Name,
		Email:           form.Email,
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirm_password"),
		Role:            role,
		ChurchID:        churchID,
	})
	if err != nil {
		h.fail(c, err, "church_member_add.html", p)
		return
	}
	c.Redirect(http.StatusFound, withChurch(c, "/church/members"))
}

func (h *Handler) events(c *gin.Context) {
	h.renderEvents(c, h.newPage(c, "Events"), churchservice.EventInput{}, http.StatusOK)
}

func (h *Handler) renderEvents(c *gin.Context, p *page, form churchservice.EventInput, status int) {
	events, err := h.churches.Events(c.Request.Context(), p.Church)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Data = eventsView{
		Events:    events,
		Types:     churchdomain.EventTypes(),
		Form:      form,
		CanCreate: p.Nav.IsAdmin,
	}
	h.render(c, status, "church_events.html", p)
}

func (h *Handler) createEvent(c *gin.Context) {
	in := churchservice.EventInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Type:        c.PostForm("type"),
		Location:    c.PostForm("location"),
		Start:       c.PostForm("start"),
		End:         c.PostForm("end"),
		Visibility:  c.PostForm("visibility"),
	}
	p := h.newPage(c, "Events")
	if _, err := h.churches.CreateEvent(c.Request.Context(), p.Church, in); err != nil {
		if ve, ok := churchdomain.AsValidationError(err); ok {
			p.Error = ve.Message
			h.renderEvents(c, p, in, http.StatusBadRequest)
			return
		}
		h.fail(c, err, "", p)
		return
	}
	c.Redirect(http.StatusFound, withChurch(c, "/church/events"))
}

func (h *Handler) inventory(c *gin.Context) {
	h.renderInventory(c, h.newPage(c, "Inventory"), churchservice.InventoryInput{}, http.StatusOK)
}

func (h *Handler) renderInventory(c *gin.Context, p *page, form churchservice.InventoryInput, status int) {
	items, err := h.churches.Inventory(c.Request.Context(), p.Church)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Data = inventoryView{Items: items, Conditions: churchdomain.Conditions(), Form: form}
	h.render(c, status, "church_inventory.html", p)
}

func (h *Handler) createInventoryItem(c *gin.Context) {
	in := churchservice.InventoryInput{
		Name:        c.PostForm("name"),
		Category:    c.PostForm("category"),
		Quantity:    c.PostForm("quantity"),
		Unit:        c.PostForm("unit"),
		Location:    c.PostForm("location"),
		Condition:   c.PostForm("condition"),
		Value:       c.PostForm("value"),
		Notes:       c.PostForm("notes"),
		LastChecked: c.PostForm("last_checked"),
	}
	p := h.newPage(c, "Inventory")
	if _, err := h.churches.CreateInventoryItem(c.Request.Context(), p.Church, in); err != nil {
		if ve, ok := churchdomain.AsValidationError(err); ok {
			p.Error = ve.Message
			h.renderInventory(c, p, in, http.StatusBadRequest)
			return
		}
		h.fail(c, err, "", p)
		return
	}
	c.Redirect(http.StatusFound, withChurch(c, "/church/inventory"))
}

func (h *Handler) files(c *gin.Context) {
	h.renderFiles(c, h.newPage(c, "Files"), churchservice.FileInput{}, http.StatusOK)
}

func (h *Handler) renderFiles(c *gin.Context, p *page, form churchservice.FileInput, status int) {
	files, err := h.churches.Files(c.Request.Context(), p.Church)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Data = filesView{Files: files, Kinds: churchdomain.FileKinds(), Form: form}
	h.render(c, status, "church_files.html", p)
}

func (h *Handler) registerFile(c *gin.Context) {
	in := churchservice.FileInput{
		Name:     c.PostForm("name"),
		Kind:     c.PostForm("kind"),
		Category: c.PostForm("category"),
		Size:     c.PostForm("size"),
	}
	p := h.newPage(c, "Files")
	if _, err := h.churches.RegisterFile(c.Request.Context(), p.Church, in); err != nil {
		if ve, ok := churchdomain.AsValidationError(err); ok {
			p.Error = ve.Message
			h.renderFiles(c, p, in, http.StatusBadRequest)
			return
		}
		h.fail(c, err, "", p)
		return
	}
	c.Redirect(http.StatusFound, withChurch(c, "/church/files"))
}

func (h *Handler) information(c *gin.Context) {
	p := h.newPage(c, "Church information")
	church, err := h.churches.Church(c.Request.Context(), p.Church)
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Data = informationView{Church: church, States: churchdomain.USStates, Saved: c.Query("saved") == "1"}
	h.render(c, http.StatusOK, "church_information.html", p)
}

func (h *Handler) updateInformation(c *gin.Context) {
	in := churchservice.ChurchInput{
		Name:         c.PostForm("name"),
		Address:      c.PostForm("address"),
		City:         c.PostForm("city"),
		State:        c.PostForm("state"),
		Zip:          c.PostForm("zip"),
		Phone:        c.PostForm("phone"),
		Email:        c.PostForm("email"),
		Website:      c.PostForm("website"),
		Denomination: c.PostForm("denomination"),
	}
	p := h.newPage(c, "Church information")
	if _, err := h.churches.UpdateChurch(c.Request.Context(), p.Church, in); err != nil {
		if ve, ok := churchdomain.AsValidationError(err); ok {
			p.Error = ve.Message
			p.Data = informationView{Church: &churchdomain.Church{
				Name: in.Name, Address: in.Address, City: in.City, State: in.State, Zip: in.Zip,
				Phone: in.Phone, Email: in.Email, Website: in.Website, Denomination: in.Denomination,
			}, States: churchdomain.USStates}
			h.render(c, http.StatusBadRequest, "church_information.html", p)
			return
		}
		h.fail(c, err, "", p)
		return
	}
	target := "/church/information?saved=1"
	if id := requestedChurch(c); id != "" {
		target += "&church=" + url.QueryEscape(id)
	}
	c.Redirect(http.StatusFound, target)
}

func (h *Handler) applications(c *gin.Context) {
	p := h.newPage(c, "Church applications")
	apps, err := h.churches.OpenApplications(c.Request.Context())
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	p.Message = c.Query("message")
	p.Data = apps
	h.render(c, http.StatusOK, "church_applications.html", p)
}

func (h *Handler) approveApplication(c *gin.Context) {
	p := h.newPage(c, "Church applications")
	res, err := h.churches.ApproveApplication(c.Request.Context(), c.Param("id"), c.PostForm("notes"))
	if err != nil {
		h.fail(c, err, "", p)
		return
	}
	msg := "Approved. " + res.Church.Name + " is now registered."
	if !res.AdminAssigned {
		msg += " No admin was assigned. " + res.Match.Describe()
	}
	c.Redirect(http.StatusFound, "/church/applications?message="+url.QueryEscape(msg))
}

func (h *Handler) rejectApplication(c *gin.Context) {
	p := h.newPage(c, "Church applications")
	if err := h.churches.RejectApplication(c.Request.Context(), c.Param("id"), c.PostForm("reason")); err != nil {
		if ve, ok := churchdomain.AsValidationError(err); ok {
			c.Redirect(http.StatusFound, "/church/applications?message="+url.QueryEscape(ve.Message))
			return
		}
		h.fail(c, err, "", p)
		return
	}
	c.Redirect(http.StatusFound, "/church/applications?message="+url.QueryEscape("Application rejected."))
}
