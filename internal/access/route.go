// Package access classifies request paths and decides whether a request may proceed
// or must be redirected.
package access

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"church-portal/internal/profile/domain"
)

// Class is the protection class of a path.
type Class int

const (
	// ClassPublic is reachable without a session.
	ClassPublic Class = iota
	// ClassAuthOnly is a sign-in or sign-up page; signed-in users are sent home.
	ClassAuthOnly
	// ClassProtected requires a profile whose role is in the route's allowed set.
	ClassProtected
)

func (c Class) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassAuthOnly:
		return "auth_only"
	case ClassProtected:
		return "protected"
	}
	return "unknown"
}

// Route is one entry of the classification table.
type Route struct {
	Prefix  string
	Exact   bool // match Prefix only, not its sub-paths
	Class   Class
	Allowed []domain.Role // Protected only
}

// Permits reports whether role may access a Protected route.
func (r Route) Permits(role domain.Role) bool {
	for _, a := range r.Allowed {
		if a == role {
			return true
		}
	}
	return false
}

func (r Route) matches(p string) bool {
	if p == r.Prefix {
		return true
	}
	if r.Exact {
		return false
	}
	return strings.HasPrefix(p, r.Prefix+"/")
}

// Paths the policy redirects to.
const (
	LoginPath      = "/login"
	ChurchHomePath = "/church"
	MemberHomePath = "/member"
)

// RoleHome is the landing route for role after sign-in.
func RoleHome(role domain.Role) string {
	if domain.HasAdminCapability(role) {
		return ChurchHomePath
	}
	return MemberHomePath
}

// DefaultRoutes is the application's classification table.
func DefaultRoutes() []Route {
	all := domain.AllRoles()
	admins := []domain.Role{domain.RoleChurchAdmin, domain.RoleSystemAdmin}
	return []Route{
		{Prefix: "/", Exact: true, Class: ClassPublic},
		{Prefix: "/apply-church", Class: ClassPublic},
		{Prefix: "/api/public", Class: ClassPublic},
		{Prefix: "/healthz", Class: ClassPublic},
		{Prefix: "/static", Class: ClassPublic},
		{Prefix: "/logout", Class: ClassPublic},
		{Prefix: LoginPath, Class: ClassAuthOnly},
		{Prefix: "/register", Class: ClassAuthOnly},
		{Prefix: "/admin-register", Class: ClassAuthOnly},
		{Prefix: ChurchHomePath, Class: ClassProtected, Allowed: admins},
		{Prefix: MemberHomePath, Class: ClassProtected, Allowed: all},
		{Prefix: "/api/auth", Class: ClassProtected, Allowed: all},
	}
}

// Classifier resolves a path to its route by longest matching prefix.
type Classifier struct {
	routes   []Route
	fallback Route
}

// NewClassifier validates routes and returns a classifier. Paths matching no entry are
// Protected for every role. Each role's home must be reachable by that role, otherwise
// the policy could redirect in a loop.
func NewClassifier(routes []Route) (*Classifier, error) {
	sorted := make([]Route, 0, len(routes))
	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		if r.Prefix == "" || r.Prefix[0] != '/' {
			return nil, fmt.Errorf("access: route prefix %q must start with /", r.Prefix)
		}
		if r.Prefix == "/" && !r.Exact {
			return nil, errors.New("access: the root route must be exact")
		}
		key := fmt.Sprintf("%s|%v", r.Prefix, r.Exact)
		if seen[key] {
			return nil, fmt.Errorf("access: duplicate route %q", r.Prefix)
		}
		seen[key] = true
		if r.Class == ClassProtected && len(r.Allowed) == 0 {
			return nil, fmt.Errorf("access: protected route %q allows no role", r.Prefix)
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Prefix) != len(sorted[j].Prefix) {
			return len(sorted[i].Prefix) > len(sorted[j].Prefix)
		}
		return sorted[i].Exact && !sorted[j].Exact
	})

	c := &Classifier{
		routes:   sorted,
		fallback: Route{Class: ClassProtected, Allowed: domain.AllRoles()},
	}
	for _, role := range domain.AllRoles() {
		home := c.Classify(RoleHome(role))
		if home.Class == ClassProtected && !home.Permits(role) {
			return nil, fmt.Errorf("access: home %s is not reachable by %s", RoleHome(role), role)
		}
	}
	return c, nil
}

// MustClassifier is NewClassifier that panics on an invalid table.
func MustClassifier(routes []Route) *Classifier {
	c, err := NewClassifier(routes)
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the route for p. Matching is on whole path segments, so /church
// covers /church/members but not /churches.
func (c *Classifier) Classify(p string) Route {
	p = normalize(p)
	for _, r := range c.routes {
		if r.matches(p) {
			return r
		}
	}
	fb := c.fallback
	fb.Prefix = p
	return fb
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
