package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	churchdomain "church-portal/internal/church/domain"
	churchservice "church-portal/internal/church/service"
	"church-portal/internal/server/middleware"
)

type applyForm struct {
	Input    churchservice.ApplicationInput
	SignedIn bool
	States   []string
}

func (h *Handler) applyPage(c *gin.Context) {
	p := h.newPage(c, "Apply to register your church")
	p.Form = applyForm{SignedIn: p.Nav.SignedIn, States: churchdomain.USStates}
	h.render(c, http.StatusOK, "apply.html", p)
}

func (h *Handler) apply(c *gin.Context) {
	in := churchservice.ApplicationInput{
		ApplicantName:      c.PostForm("applicant_name"),
		ApplicantEmail:     c.PostForm("applicant_email"),
		ApplicantPhone:     c.PostForm("applicant_phone"),
		ApplicantTitle:     c.PostForm("applicant_title"),
		ChurchName:         c.PostForm("church_name"),
		ChurchAddress:      c.PostForm("church_address"),
		ChurchCity:         c.PostForm("church_city"),
		ChurchState:        c.PostForm("church_state"),
		ChurchZip:          c.PostForm("church_zip"),
		ChurchPhone:        c.PostForm("church_phone"),
		ChurchEmail:        c.PostForm("church_email"),
		ChurchWebsite:      c.PostForm("church_website"),
		ChurchDenomination: c.PostForm("church_denomination"),
		ChurchFoundedYear:  c.PostForm("church_founded_year"),
		CongregationSize:   c.PostForm("congregation_size"),
		CurrentSoftware:    c.PostForm("current_software"),
		LeadershipPosition: c.PostForm("leadership_position"),
		YearsInPosition:    c.PostForm("years_in_position"),
		VerificationMethod: c.PostForm("verification_method"),
		Motivation:         c.PostForm("motivation"),
		CurrentChallenges:  c.PostForm("current_challenges"),
	}
	p := h.newPage(c, "Apply to register your church")
	pr, _ := middleware.PrincipalFrom(c)
	p.Form = applyForm{Input: in, SignedIn: pr.Authenticated(), States: churchdomain.USStates}

	app, err := h.churches.SubmitApplication(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err, "apply.html", p)
		return
	}
	p.Data = app
	h.render(c, http.StatusCreated, "apply_submitted.html", p)
}
