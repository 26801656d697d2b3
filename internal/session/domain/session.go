package domain

import "time"

// Session is the server-side record behind the opaque session cookie. It holds the
// provider tokens so the browser never sees them.
type Session struct {
	ID              string
	UserID          string
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time // zero when unknown
	ExpiresAt       time.Time // absolute lifetime of the record
	CreatedAt       time.Time
}

// Expired reports whether the record outlived its absolute lifetime.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// NeedsRefresh reports whether the access token expires within window of now.
// An unknown expiry never triggers a refresh; the provider's validation decides instead.
func (s *Session) NeedsRefresh(now time.Time, window time.Duration) bool {
	if s.AccessExpiresAt.IsZero() || s.RefreshToken == "" {
		return false
	}
	return !now.Add(window).Before(s.AccessExpiresAt)
}
