package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"church-portal/internal/audit"
	"church-portal/internal/church/domain"
	"church-portal/internal/platform/rbac"
	"church-portal/internal/platform/validate"
	"church-portal/internal/policy/engine"
	profiledomain "church-portal/internal/profile/domain"
	"church-portal/internal/server/middleware"
)

// ApprovalResult is the outcome of approving an application.
type ApprovalResult struct {
	Church *domain.Church
	Match  ApplicantMatch
	// AdminAssigned is false when no profile could be made the church's admin.
	AdminAssigned bool
}

// MatchStatus describes how an application's applicant relates to existing profiles.
type MatchStatus string

const (
	// MatchAccount: the application was filed from a signed-in account.
	MatchAccount MatchStatus = "account"
	// MatchEmail: exactly one profile without a church has the applicant's email.
	MatchEmail MatchStatus = "email"
	// MatchNone: no profile has the applicant's email yet.
	MatchNone MatchStatus = "none"
	// MatchInOtherChurch: the email belongs to a profile that already has a church.
	MatchInOtherChurch MatchStatus = "in_other_church"
	// MatchSystemAdmin: the applicant resolves to a system admin, who is never reassigned.
	MatchSystemAdmin MatchStatus = "system_admin"
	// MatchAmbiguous: several profiles share the applicant's email.
	MatchAmbiguous MatchStatus = "ambiguous"
)

// ApplicantMatch is the profile approval would promote, if any.
type ApplicantMatch struct {
	Status  MatchStatus
	Profile *profiledomain.Profile
}

// Assignable reports whether approval makes Profile the church admin.
func (m ApplicantMatch) Assignable() bool {
	return (m.Status == MatchAccount || m.Status == MatchEmail) && m.Profile != nil
}

// Describe is the reviewer-facing summary of the match.
func (m ApplicantMatch) Describe() string {
	switch m.Status {
	case MatchAccount:
		return "Filed from the applicant's account; approval makes it the church admin."
	case MatchEmail:
		return "An unassigned profile has this email; approval makes it the church admin."
	case MatchInOtherChurch:
		return "This email belongs to a profile already in another church; it will not be moved."
	case MatchSystemAdmin:
		return "This applicant is a system admin and will not be reassigned."
	case MatchAmbiguous:
		return "Several profiles share this email; assign the admin by hand."
	}
	return "No profile has this email yet; assign the admin once they register."
}

// ApplicationReview is an open application with its applicant match.
type ApplicationReview struct {
	*domain.Application
	Match ApplicantMatch
}

// SubmitApplication records a church application. Signed-in callers submit as EXISTING_USER
// with their identity as applicant; anonymous callers must name and identify themselves.
func (s *Service) SubmitApplication(ctx context.Context, in ApplicationInput) (*domain.Application, error) {
	app, err := s.buildApplication(in)
	if err != nil {
		return nil, err
	}
	app.Type = domain.ApplicationNewUser
	if p, ok := middleware.GetPrincipal(ctx); ok && p.Authenticated() {
		app.Type = domain.ApplicationExistingUser
		app.ApplicantUserID = p.Identity.ID
		if app.ApplicantEmail == "" {
			app.ApplicantEmail = p.Identity.Email
		}
		if app.ApplicantName == "" && p.Profile != nil {
			app.ApplicantName = p.Profile.DisplayName()
		}
	}
	if app.Type == domain.ApplicationNewUser {
		if app.ApplicantName == "" {
			return nil, domain.Invalid("applicant_name", "your name is required")
		}
		if app.ApplicantEmail == "" {
			return nil, domain.Invalid("applicant_email", "your email is required")
		}
	}
	if app.ApplicantEmail != "" {
		if !validate.Email(app.ApplicantEmail) {
			return nil, domain.Invalid("applicant_email", "enter a valid email address")
		}
	}

	app.ID = s.newID()
	app.Status = domain.StatusPending
	app.SubmittedAt = s.nowF()
	app.UpdatedAt = app.SubmittedAt
	if err := s.deps.Applications.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.deps.Audit.LogEvent(ctx, "", app.ApplicantUserID, audit.ActionApplicationSubmit, audit.ResourceApplication,
		map[string]string{"application_id": app.ID, "type": string(app.Type)})
	s.deps.Logger.Info("church application submitted",
		zap.String("application_id", app.ID),
		zap.String("type", string(app.Type)),
	)
	return app, nil
}

// OpenApplications lists applications awaiting review with the profile each would promote.
func (s *Service) OpenApplications(ctx context.Context) ([]*ApplicationReview, error) {
	if _, err := s.reviewer(ctx); err != nil {
		return nil, err
	}
	apps, err := s.deps.Applications.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ApplicationReview, 0, len(apps))
	for _, a := range apps {
		m, err := s.matchApplicant(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, &ApplicationReview{Application: a, Match: m})
	}
	return out, nil
}

// ApproveApplication creates the church and makes the applicant its CHURCH_ADMIN.
func (s *Service) ApproveApplication(ctx context.Context, id, notes string) (*ApprovalResult, error) {
	p, err := s.reviewer(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.deps.Applications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	if !app.Status.Open() {
		return nil, domain.ErrAlreadyReviewed
	}
	match, err := s.matchApplicant(ctx, app)
	if err != nil {
		return nil, err
	}
	adminID := ""
	if match.Assignable() {
		adminID = match.Profile.ID
	}
	church := app.NewChurch(s.newID())
	assigned, err := s.deps.Applications.Approve(ctx, id, p.UserID(), strings.TrimSpace(notes), church, adminID)
	if err != nil {
		return nil, err
	}
	s.deps.Audit.LogEvent(ctx, church.ID, p.UserID(), audit.ActionApplicationApproved, audit.ResourceApplication,
		map[string]string{"application_id": id, "admin_assigned": fmt.Sprint(assigned), "applicant_match": string(match.Status)})
	if assigned {
		s.deps.Sessions.InvalidateUser(adminID)
	} else {
		s.deps.Logger.Warn("approved application has no assignable profile",
			zap.String("application_id", id),
			zap.String("church_id", church.ID),
			zap.String("match", string(match.Status)),
		)
	}
	return &ApprovalResult{Church: church, Match: match, AdminAssigned: assigned}, nil
}

// matchApplicant finds the profile approval may promote. Applications filed from an account
// match that account only. Emails typed by anonymous applicants are unverified, so they match
// only a single profile that has no church yet.
func (s *Service) matchApplicant(ctx context.Context, app *domain.Application) (ApplicantMatch, error) {
	if app.ApplicantUserID != "" {
		prof, err := s.deps.Profiles.GetByID(ctx, app.ApplicantUserID)
		if err != nil {
			return ApplicantMatch{}, fmt.Errorf("get applicant profile: %w", err)
		}
		return classify(prof, MatchAccount), nil
	}
	if app.ApplicantEmail == "" {
		return ApplicantMatch{Status: MatchNone}, nil
	}
	profiles, err := s.deps.Profiles.ListByEmail(ctx, app.ApplicantEmail)
	if err != nil {
		return ApplicantMatch{}, fmt.Errorf("find applicant profile: %w", err)
	}
	switch len(profiles) {
	case 0:
		return ApplicantMatch{Status: MatchNone}, nil
	case 1:
		m := classify(profiles[0], MatchEmail)
		if m.Status == MatchEmail && profiles[0].HasChurch() {
			m.Status = MatchInOtherChurch
		}
		return m, nil
	}
	return ApplicantMatch{Status: MatchAmbiguous}, nil
}

func classify(prof *profiledomain.Profile, ok MatchStatus) ApplicantMatch {
	switch {
	case prof == nil:
		return ApplicantMatch{Status: MatchNone}
	case prof.Role.IsSystemAdmin():
		return ApplicantMatch{Status: MatchSystemAdmin, Profile: prof}
	}
	return ApplicantMatch{Status: ok, Profile: prof}
}

// RejectApplication closes an open application with a reason.
func (s *Service) RejectApplication(ctx context.Context, id, reason string) error {
	p, err := s.reviewer(ctx)
	if err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Invalid("reason", "a rejection reason is required")
	}
	if err := s.deps.Applications.Reject(ctx, id, p.UserID(), reason); err != nil {
		return err
	}
	s.deps.Audit.LogEvent(ctx, "", p.UserID(), audit.ActionApplicationRejected, audit.ResourceApplication,
		map[string]string{"application_id": id})
	return nil
}

func (s *Service) reviewer(ctx context.Context) (*middleware.Principal, error) {
	p, err := rbac.RequireProfile(ctx)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(ctx, s.deps.Authorizer, engine.ActionApplicationsReview, engine.Resource{}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) buildApplication(in ApplicationInput) (*domain.Application, error) {
	churchName := strings.TrimSpace(in.ChurchName)
	if churchName == "" {
		return nil, domain.Invalid("church_name", "church name is required")
	}
	position := strings.TrimSpace(in.LeadershipPosition)
	if position == "" {
		return nil, domain.Invalid("leadership_position", "leadership position is required")
	}
	state, err := normalizeState(in.ChurchState)
	if err != nil {
		return nil, err
	}
	founded, err := optionalIntField("church_founded_year", in.ChurchFoundedYear)
	if err != nil {
		return nil, err
	}
	size, err := optionalIntField("congregation_size", in.CongregationSize)
	if err != nil {
		return nil, err
	}
	years, err := optionalIntField("years_in_position", in.YearsInPosition)
	if err != nil {
		return nil, err
	}
	return &domain.Application{
		ApplicantName:      strings.TrimSpace(in.ApplicantName),
		ApplicantEmail:     strings.ToLower(strings.TrimSpace(in.ApplicantEmail)),
		ApplicantPhone:     strings.TrimSpace(in.ApplicantPhone),
		ApplicantTitle:     strings.TrimSpace(in.ApplicantTitle),
		ChurchName:         churchName,
		ChurchAddress:      strings.TrimSpace(in.ChurchAddress),
		ChurchCity:         strings.TrimSpace(in.ChurchCity),
		ChurchState:        state,
		ChurchZip:          strings.TrimSpace(in.ChurchZip),
		ChurchPhone:        strings.TrimSpace(in.ChurchPhone),
		ChurchEmail:        strings.TrimSpace(in.ChurchEmail),
		ChurchWebsite:      strings.TrimSpace(in.ChurchWebsite),
		ChurchDenomination: strings.TrimSpace(in.ChurchDenomination),
		ChurchFoundedYear:  founded,
		CongregationSize:   size,
		CurrentSoftware:    strings.TrimSpace(in.CurrentSoftware),
		LeadershipPosition: position,
		YearsInPosition:    years,
		VerificationMethod: strings.TrimSpace(in.VerificationMethod),
		Motivation:         strings.TrimSpace(in.Motivation),
		CurrentChallenges:  strings.TrimSpace(in.CurrentChallenges),
	}, nil
}
