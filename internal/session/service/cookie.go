package service

import (
	"net/http"
	"time"
)

// Cookie issues and reads the session cookie. Only the opaque session id is stored in it.
type Cookie struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

// NewCookie returns cookie settings with HttpOnly and SameSite=Lax.
func NewCookie(name string, secure bool) Cookie {
	return Cookie{Name: name, Secure: secure, SameSite: http.SameSiteLaxMode}
}

// Set writes the session cookie for id, expiring at expiresAt.
func (c Cookie) Set(w http.ResponseWriter, id string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// Clear removes the session cookie from the browser.
func (c Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	})
}

// Read returns the session id carried by r, or "" when absent.
func (c Cookie) Read(r *http.Request) string {
	ck, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}
