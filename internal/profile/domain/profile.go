package domain

import "time"

// Profile is the application record for an identity. ID equals the identity id.
type Profile struct {
	ID         string
	Email      string
	Name       string
	Phone      string
	AvatarURL  string
	Role       Role
	ChurchID   string // empty when not attached to a church
	ChurchName string // filled by lookups that join churches
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasChurch reports whether the profile belongs to a church.
func (p *Profile) HasChurch() bool {
	return p != nil && p.ChurchID != ""
}

// DisplayName returns the name, falling back to the email.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
