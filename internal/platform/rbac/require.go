// Package rbac checks the caller's role and church before dashboard handlers act.
package rbac

import (
	"context"
	"errors"
	"net/http"

	"church-portal/internal/policy/engine"
	profiledomain "church-portal/internal/profile/domain"
	"church-portal/internal/server/middleware"
)

var (
	// ErrUnauthenticated means no identity was resolved for the request.
	ErrUnauthenticated = errors.New("rbac: sign-in required")
	// ErrProfileRequired means the identity has no profile yet.
	ErrProfileRequired = errors.New("rbac: profile setup required")
	// ErrChurchRequired means the profile is not assigned to a church.
	ErrChurchRequired = errors.New("rbac: no church assigned")
	// ErrForbidden means the role does not permit the operation.
	ErrForbidden = errors.New("rbac: forbidden")
)

// RequireProfile returns the caller's principal when it has a profile.
func RequireProfile(ctx context.Context) (*middleware.Principal, error) {
	p, ok := middleware.GetPrincipal(ctx)
	if !ok || !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if p.Profile == nil {
		return nil, ErrProfileRequired
	}
	return p, nil
}

// RequireChurchAdmin ensures the caller is CHURCH_ADMIN of a church or SYSTEM_ADMIN.
// A system admin need not belong to a church.
func RequireChurchAdmin(ctx context.Context) (*middleware.Principal, error) {
	p, err := RequireProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !profiledomain.HasAdminCapability(p.Profile.Role) {
		return nil, ErrForbidden
	}
	if p.Profile.Role == profiledomain.RoleChurchAdmin && !p.Profile.HasChurch() {
		return nil, ErrChurchRequired
	}
	return p, nil
}

// RequireChurchMember ensures the caller has a profile assigned to a church. Any role qualifies.
func RequireChurchMember(ctx context.Context) (*middleware.Principal, error) {
	p, err := RequireProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Profile.HasChurch() {
		return nil, ErrChurchRequired
	}
	return p, nil
}

// Authorize asks a whether the caller may perform action on res.
// Returns engine.ErrDenied (possibly joined with an evaluation error) on deny.
func Authorize(ctx context.Context, a engine.Authorizer, action engine.Action, res engine.Resource) error {
	p, err := RequireProfile(ctx)
	if err != nil {
		return err
	}
	return engine.Require(ctx, a, engine.Request{
		Action: action,
		Actor: engine.Actor{
			ID:       p.Identity.ID,
			Role:     p.Profile.Role,
			ChurchID: p.Profile.ChurchID,
		},
		Resource: res,
	})
}

// HTTPStatus maps an rbac or policy error to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrProfileRequired), errors.Is(err, ErrChurchRequired):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden), errors.Is(err, engine.ErrDenied):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
