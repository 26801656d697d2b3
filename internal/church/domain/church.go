package domain

import (
	"strings"
	"time"
)

// Church is a tenant. Every profile, event, inventory item and file belongs to one.
type Church struct {
	ID           string
	Name         string
	Slug         string
	Address      string
	City         string
	State        string
	Zip          string
	Phone        string
	Email        string
	Website      string
	Denomination string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Slugify lowercases name and joins its letters and digits with single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "church"
	}
	return b.String()
}

// Stats is the church-admin dashboard summary.
type Stats struct {
	TotalMembers   int
	UpcomingEvents int
	InventoryItems int
	Files          int
}
