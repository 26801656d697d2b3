package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const allowQuery = "data.church_portal.authz.allow"

// DefaultPolicy grants system admins everything and scopes church admins and members to
// their own church.
const DefaultPolicy = `package church_portal.authz

default allow := false

admin_actions := {
	"members.list", "members.create",
	"church.read", "church.update",
	"events.list", "events.create",
	"inventory.list", "inventory.create",
	"files.list", "files.create",
}

member_actions := {"church.read", "events.list"}

same_church if {
	input.actor.church_id != ""
	input.actor.church_id == input.resource.church_id
}

allow if {
	input.actor.role == "SYSTEM_ADMIN"
}

allow if {
	input.actor.role == "CHURCH_ADMIN"
	same_church
	admin_actions[input.action]
	input.action != "members.create"
}

allow if {
	input.actor.role == "CHURCH_ADMIN"
	same_church
	input.action == "members.create"
	input.resource.target_role == "MEMBER"
}

allow if {
	input.actor.role == "MEMBER"
	same_church
	member_actions[input.action]
}
`

// OPAAuthorizer evaluates requests against a compiled Rego policy.
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

// NewOPAAuthorizer compiles policy (DefaultPolicy when empty) and prepares the allow query.
func NewOPAAuthorizer(ctx context.Context, policy string) (*OPAAuthorizer, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAAuthorizer{query: pq}, nil
}

// Allowed evaluates req. An undefined result is a deny.
func (a *OPAAuthorizer) Allowed(ctx context.Context, req Request) (bool, error) {
	rs, err := a.query.Eval(ctx, rego.EvalInput(buildInput(req)))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	return ok && v, nil
}

// HealthCheck evaluates a fixed request against the compiled policy. It does not touch the database.
func (a *OPAAuthorizer) HealthCheck(ctx context.Context) error {
	ok, err := a.Allowed(ctx, Request{
		Action: ActionApplicationsReview,
		Actor:  Actor{ID: "healthcheck", Role: "SYSTEM_ADMIN"},
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("policy denied the health check request")
	}
	return nil
}

func buildInput(req Request) map[string]interface{} {
	return map[string]interface{}{
		"action": string(req.Action),
		"actor": map[string]interface{}{
			"id":        req.Actor.ID,
			"role":      string(req.Actor.Role),
			"church_id": req.Actor.ChurchID,
		},
		"resource": map[string]interface{}{
			"church_id":   req.Resource.ChurchID,
			"target_role": string(req.Resource.TargetRole),
		},
	}
}
