package auth

import "fmt"

// Input is the material a policy decides over: the authenticated
// identity, the optional organization standing, and any
// resource-specific data the route supplies.
type Input struct {
	Auth     AuthContext
	Org      *OrgContext
	Resource any
}

// HasPermission reports whether any held role grants the permission.
// Global roles always count; the org-scoped role counts when an
// OrgContext is supplied.
func (in Input) HasPermission(p Permission) bool {
	for _, role := range in.Auth.Roles {
		if RoleGrants(role, p) {
			return true
		}
	}
	if in.Org != nil && RoleGrants(in.Org.Role, p) {
		return true
	}
	return false
}

// Decision is the result of evaluating a policy.
type Decision struct {
	Allowed bool
	Err     *Error
}

// Allow marks the input as authorized.
func Allow() Decision { return Decision{Allowed: true} }

// Deny refuses the input with the given error.
func Deny(err *Error) Decision { return Decision{Err: err} }

// Policy is a reusable, side-effect-free decision function. Policies
// are values, not request-bound closures: the same policy instance is
// evaluated for every request hitting a route.
type Policy interface {
	Evaluate(in Input) Decision
}

type permissionPolicy struct {
	perm Permission
}

// RequirePermission allows iff the actor holds the permission through
// any of its roles.
func RequirePermission(p Permission) Policy {
	return permissionPolicy{perm: p}
}

func (pp permissionPolicy) Evaluate(in Input) Decision {
	if in.HasPermission(pp.perm) {
		return Allow()
	}
	return Deny(NewError(KindInsufficientPermission, fmt.Sprintf("permission %s required", pp.perm)))
}

type anyPermissionPolicy struct {
	perms []Permission
}

// RequireAnyPermission allows iff at least one of the permissions is
// held. Evaluation short-circuits on the first held permission; the
// outcome does not depend on ordering.
func RequireAnyPermission(perms ...Permission) Policy {
	return anyPermissionPolicy{perms: perms}
}

func (ap anyPermissionPolicy) Evaluate(in Input) Decision {
	for _, p := range ap.perms {
		if in.HasPermission(p) {
			return Allow()
		}
	}
	return Deny(NewError(KindInsufficientPermission, fmt.Sprintf("one of permissions %v required", ap.perms)))
}

type allPermissionsPolicy struct {
	perms []Permission
}

// RequireAllPermissions allows iff every permission is held.
// Evaluation short-circuits on the first missing permission; which
// missing permission gets reported when several are missing is
// deterministic but not part of the contract.
func RequireAllPermissions(perms ...Permission) Policy {
	return allPermissionsPolicy{perms: perms}
}

func (ap allPermissionsPolicy) Evaluate(in Input) Decision {
	for _, p := range ap.perms {
		if !in.HasPermission(p) {
			return Deny(NewError(KindInsufficientPermission, fmt.Sprintf("permission %s required", p)))
		}
	}
	return Allow()
}

type creatorOrPermissionPolicy struct {
	perm      Permission
	isCreator func(Input) bool
}

// RequireCreatorOrPermission allows when the actor created the
// resource (per the supplied predicate) or holds the permission. The
// creator check runs first because it is cheaper, but the two branches
// are a plain OR: either suffices.
func RequireCreatorOrPermission(p Permission, isCreator func(Input) bool) Policy {
	return creatorOrPermissionPolicy{perm: p, isCreator: isCreator}
}

func (cp creatorOrPermissionPolicy) Evaluate(in Input) Decision {
	if cp.isCreator != nil && cp.isCreator(in) {
		return Allow()
	}
	if in.HasPermission(cp.perm) {
		return Allow()
	}
	return Deny(NewError(KindCreatorMismatch, fmt.Sprintf("not the resource creator and missing permission %s", cp.perm)))
}

type customPolicy struct {
	fn func(Input) Decision
}

// Custom wraps an arbitrary predicate into the Policy shape. Escape
// hatch for ad hoc composition.
func Custom(fn func(Input) Decision) Policy {
	return customPolicy{fn: fn}
}

func (cp customPolicy) Evaluate(in Input) Decision {
	if cp.fn == nil {
		return Allow()
	}
	return cp.fn(in)
}

type andPolicy struct {
	children []Policy
}

type orPolicy struct {
	children []Policy
}

// And combines policies conjunctively: every child must allow. Nested
// And nodes are flattened so grouping never changes the outcome.
// And() of nothing allows.
func And(policies ...Policy) Policy {
	flat := flatten(policies, func(p Policy) ([]Policy, bool) {
		child, ok := p.(andPolicy)
		return child.children, ok
	})
	if len(flat) == 1 {
		return flat[0]
	}
	return andPolicy{children: flat}
}

// Or combines policies disjunctively: one allowing child suffices.
// Nested Or nodes are flattened so grouping never changes the outcome.
// Or() of nothing denies.
func Or(policies ...Policy) Policy {
	flat := flatten(policies, func(p Policy) ([]Policy, bool) {
		child, ok := p.(orPolicy)
		return child.children, ok
	})
	if len(flat) == 1 {
		return flat[0]
	}
	return orPolicy{children: flat}
}

func flatten(policies []Policy, unwrap func(Policy) ([]Policy, bool)) []Policy {
	flat := make([]Policy, 0, len(policies))
	for _, p := range policies {
		if p == nil {
			continue
		}
		if children, ok := unwrap(p); ok {
			flat = append(flat, children...)
			continue
		}
		flat = append(flat, p)
	}
	return flat
}

func (ap andPolicy) Evaluate(in Input) Decision {
	for _, child := range ap.children {
		if d := child.Evaluate(in); !d.Allowed {
			return d
		}
	}
	return Allow()
}

func (op orPolicy) Evaluate(in Input) Decision {
	var first Decision
	for i, child := range op.children {
		d := child.Evaluate(in)
		if d.Allowed {
			return d
		}
		if i == 0 {
			first = d
		}
	}
	if len(op.children) == 0 {
		return Deny(NewError(KindInsufficientPermission, "no policy allowed the request"))
	}
	return first
}
