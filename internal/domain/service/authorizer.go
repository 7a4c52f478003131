package service

import (
	"fmt"

	"github.com/samber/mo"
)

// AuthorizationPolicy restricts commands to a single user. With Enforce off
// every user may run every command.
type AuthorizationPolicy struct {
	Enforce          bool
	AuthorizedUserID mo.Option[string]
	// Commands limits the gate to the named commands; empty gates all of them.
	Commands []string
}

// AuthDecision is the result of evaluating the policy for one invocation.
type AuthDecision struct {
	Allowed bool
	Reason  string
}

// Authorizer evaluates an AuthorizationPolicy. It holds no mutable state.
type Authorizer struct {
	policy AuthorizationPolicy
	gated  map[string]bool
}

// NewAuthorizer creates an Authorizer for the given policy.
func NewAuthorizer(policy AuthorizationPolicy) *Authorizer {
	gated := make(map[string]bool, len(policy.Commands))
	for _, c := range policy.Commands {
		gated[c] = true
	}
	return &Authorizer{policy: policy, gated: gated}
}

// Evaluate decides whether userID may run command.
// An enforced policy without an authorized user denies every gated command.
func (a *Authorizer) Evaluate(command, userID string) AuthDecision {
	if !a.policy.Enforce {
		return AuthDecision{Allowed: true, Reason: "authorization disabled"}
	}
	if len(a.gated) > 0 && !a.gated[command] {
		return AuthDecision{Allowed: true, Reason: fmt.Sprintf("command %q is not gated", command)}
	}

	authorized, ok := a.policy.AuthorizedUserID.Get()
	if !ok {
		return AuthDecision{Allowed: false, Reason: "no authorized user configured"}
	}
	if userID != authorized {
		return AuthDecision{Allowed: false, Reason: fmt.Sprintf("user %q is not the authorized user", userID)}
	}
	return AuthDecision{Allowed: true, Reason: "authorized user"}
}
