// Package engine authorizes dashboard actions with an embedded Rego policy.
package engine

import (
	"context"
	"errors"

	profiledomain "church-portal/internal/profile/domain"
)

// Action names a state-changing or tenant-scoped dashboard operation.
type Action string

const (
	ActionMembersList        Action = "members.list"
	ActionMembersCreate      Action = "members.create"
	ActionChurchRead         Action = "church.read"
	ActionChurchUpdate       Action = "church.update"
	ActionEventsList         Action = "events.list"
	ActionEventsCreate       Action = "events.create"
	ActionInventoryList      Action = "inventory.list"
	ActionInventoryCreate    Action = "inventory.create"
	ActionFilesList          Action = "files.list"
	ActionFilesCreate        Action = "files.create"
	ActionApplicationsReview Action = "applications.review"
)

// ErrDenied is returned by Require when the policy denies the request.
var ErrDenied = errors.New("policy: action denied")

// Actor is the signed-in principal asking to act.
type Actor struct {
	ID       string
	Role     profiledomain.Role
	ChurchID string
}

// Resource is what the action targets. TargetRole is set when creating an account.
type Resource struct {
	ChurchID   string
	TargetRole profiledomain.Role
}

// Request is one authorization question.
type Request struct {
	Action   Action
	Actor    Actor
	Resource Resource
}

// Authorizer answers authorization requests.
type Authorizer interface {
	Allowed(ctx context.Context, req Request) (bool, error)
}

// Require returns ErrDenied unless a allows req. Evaluation errors deny.
func Require(ctx context.Context, a Authorizer, req Request) error {
	ok, err := a.Allowed(ctx, req)
	if err != nil {
		return errors.Join(ErrDenied, err)
	}
	if !ok {
		return ErrDenied
	}
	return nil
}
