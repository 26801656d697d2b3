package domain

// Role is a profile's role. The set is closed.
type Role string

const (
	RoleMember      Role = "MEMBER"
	RoleChurchAdmin Role = "CHURCH_ADMIN"
	RoleSystemAdmin Role = "SYSTEM_ADMIN"
)

// AllRoles lists every role, least privileged first.
func AllRoles() []Role {
	return []Role{RoleMember, RoleChurchAdmin, RoleSystemAdmin}
}

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleMember, RoleChurchAdmin, RoleSystemAdmin:
		return r, true
	}
	return "", false
}

// HasAdminCapability reports whether r may administer a church.
// It is the only place that decides which roles count as admins.
func HasAdminCapability(r Role) bool {
	return r == RoleChurchAdmin || r == RoleSystemAdmin
}

// IsSystemAdmin reports whether r administers the whole platform.
func (r Role) IsSystemAdmin() bool {
	return r == RoleSystemAdmin
}

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleMember:
		return "Member"
	case RoleChurchAdmin:
		return "Church Admin"
	case RoleSystemAdmin:
		return "System Admin"
	}
	return string(r)
}
