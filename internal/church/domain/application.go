package domain

import "time"

// ApplicationStatus is the review state of a church application.
type ApplicationStatus string

const (
	StatusPending              ApplicationStatus = "PENDING"
	StatusUnderReview          ApplicationStatus = "UNDER_REVIEW"
	StatusApproved             ApplicationStatus = "APPROVED"
	StatusRejected             ApplicationStatus = "REJECTED"
	StatusAdditionalInfoNeeded ApplicationStatus = "ADDITIONAL_INFO_NEEDED"
)

// Open reports whether the application still awaits a decision.
func (s ApplicationStatus) Open() bool {
	return s == StatusPending || s == StatusUnderReview || s == StatusAdditionalInfoNeeded
}

// ApplicationType tells whether the applicant already had an account.
type ApplicationType string

const (
	ApplicationNewUser      ApplicationType = "NEW_USER"
	ApplicationExistingUser ApplicationType = "EXISTING_USER"
)

// Application is a request to register a church on the platform.
// Optional numeric fields are nil when not given.
type Application struct {
	ID              string
	Type            ApplicationType
	Status          ApplicationStatus
	ApplicantUserID string
	ApplicantName   string
	ApplicantEmail  string
	ApplicantPhone  string
	ApplicantTitle  string

	ChurchName         string
	ChurchAddress      string
	ChurchCity         string
	ChurchState        string
	ChurchZip          string
	ChurchPhone        string
	ChurchEmail        string
	ChurchWebsite      string
	ChurchDenomination string
	ChurchFoundedYear  *int
	CongregationSize   *int
	CurrentSoftware    string

	LeadershipPosition string
	YearsInPosition    *int
	VerificationMethod string
	Motivation         string
	CurrentChallenges  string
	ApprovalNotes      string
	RejectionReason    string
	ReviewedBy         string
	ReviewedAt         *time.Time
	CreatedChurchID    string
	SubmittedAt        time.Time
	UpdatedAt          time.Time
}

// NewChurch builds the church an approved application creates.
func (a *Application) NewChurch(id string) *Church {
	return &Church{
		ID:           id,
		Name:         a.ChurchName,
		Slug:         Slugify(a.ChurchName),
		Address:      a.ChurchAddress,
		City:         a.ChurchCity,
		State:        a.ChurchState,
		Zip:          a.ChurchZip,
		Phone:        a.ChurchPhone,
		Email:        a.ChurchEmail,
		Website:      a.ChurchWebsite,
		Denomination: a.ChurchDenomination,
	}
}

// USStates are the accepted two-letter state codes.
var USStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// ValidState reports whether s is one of USStates.
func ValidState(s string) bool {
	for _, st := range USStates {
		if st == s {
			return true
		}
	}
	return false
}
