package domain

import "time"

// Identity is an authenticated principal as reported by the auth provider.
// ID is stable and is also the primary key of the matching profile row.
type Identity struct {
	ID             string
	Email          string
	EmailConfirmed bool
	Attributes     Attributes
	CreatedAt      time.Time
}

// Attributes is the user metadata attached at sign-up. The database provisions the
// profile from it, so Role and ChurchID must be the values the profile should start with.
type Attributes struct {
	Name     string
	Role     string
	ChurchID string
}

// Tokens is a provider session: an access token, the refresh token that renews it,
// and the identity it belongs to.
type Tokens struct {
	Identity     Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
