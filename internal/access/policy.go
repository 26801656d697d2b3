package access

import "church-portal/internal/profile/domain"

// Kind is the identity state the policy sees.
type Kind int

const (
	Anonymous Kind = iota
	AuthenticatedNoProfile
	AuthenticatedWithProfile
)

func (k Kind) String() string {
	switch k {
	case Anonymous:
		return "anonymous"
	case AuthenticatedNoProfile:
		return "no_profile"
	case AuthenticatedWithProfile:
		return "with_profile"
	}
	return "unknown"
}

// State is the caller's identity state. Role is meaningful only with a profile.
type State struct {
	Kind Kind
	Role domain.Role
}

// AnonymousState is a request without a valid session.
func AnonymousState() State { return State{Kind: Anonymous} }

// NoProfileState is a signed-in identity whose profile is missing or could not be read.
func NoProfileState() State { return State{Kind: AuthenticatedNoProfile} }

// ProfileState is a signed-in identity with a profile of the given role.
func ProfileState(role domain.Role) State {
	return State{Kind: AuthenticatedWithProfile, Role: role}
}

// Decision is the outcome for one request.
type Decision struct {
	Allow      bool
	RedirectTo string
}

var allow = Decision{Allow: true}

func redirect(to string) Decision { return Decision{RedirectTo: to} }

// Decide applies the redirect table. A signed-in identity without a profile is always
// allowed so the page can show the setup advisory. Wrong-role access sends the user to
// their own home, which the classifier guarantees they may reach.
func Decide(s State, r Route) Decision {
	switch s.Kind {
	case AuthenticatedNoProfile:
		return allow
	case AuthenticatedWithProfile:
		switch r.Class {
		case ClassPublic:
			return allow
		case ClassAuthOnly:
			return redirect(RoleHome(s.Role))
		default:
			if r.Permits(s.Role) {
				return allow
			}
			return redirect(RoleHome(s.Role))
		}
	default:
		if r.Class == ClassPublic {
			return allow
		}
		return redirect(LoginPath)
	}
}

// NeedsProfile reports whether deciding on r for a signed-in identity requires the profile.
// Public routes are allowed for every signed-in state, so the lookup can be skipped.
func NeedsProfile(r Route) bool {
	return r.Class != ClassPublic
}
