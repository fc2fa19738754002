package auth

import "strings"

// Permission is an atomic capability identifier. The set is closed and
// compared by equality.
type Permission string

const (
	PermTodoCreate Permission = "todo:create"
	PermTodoRead   Permission = "todo:read"
	PermTodoUpdate Permission = "todo:update"
	PermTodoDelete Permission = "todo:delete"
	PermOrgRead    Permission = "org:read"
	PermOrgManage  Permission = "org:manage"
)

// Role is a named bundle of permissions. Roles either come from the
// credential (global) or from an organization membership (org-scoped).
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// PermissionSet is an immutable lookup of held permissions. Sets
// returned by PermissionsForRole are shared and must not be mutated.
type PermissionSet map[Permission]struct{}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// rolePermissions is the process-wide role table. It is fixed at
// compile time and only ever read after init.
// Members deliberately lack the todo mutation permissions. A creator
// keeps access to their own todos through the creator branch of the
// creator-or policies even after losing the admin role.
var rolePermissions = map[Role]PermissionSet{
	RoleViewer: newPermissionSet(PermTodoRead),
	RoleMember: newPermissionSet(PermTodoRead, PermOrgRead),
	RoleAdmin:  newPermissionSet(PermTodoRead, PermTodoCreate, PermTodoUpdate, PermTodoDelete, PermOrgRead),
	RoleOwner:  newPermissionSet(PermTodoRead, PermTodoCreate, PermTodoUpdate, PermTodoDelete, PermOrgRead, PermOrgManage),
}

func newPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// PermissionsForRole resolves a role to its permission set. Unknown
// roles resolve to the empty set: holding no mapped role is a
// legitimate no-privileges state, not an error.
func PermissionsForRole(role Role) PermissionSet {
	if set, ok := rolePermissions[NormalizeRole(role)]; ok {
		return set
	}
	return PermissionSet{}
}

// RoleGrants reports whether role includes the permission.
func RoleGrants(role Role, p Permission) bool {
	return PermissionsForRole(role).Has(p)
}

// NormalizeRole trims and lower-cases a role identifier.
func NormalizeRole(role Role) Role {
	return Role(strings.TrimSpace(strings.ToLower(string(role))))
}

// NormalizeRoles deduplicates and normalizes a role list, dropping
// empty entries.
func NormalizeRoles(roles []Role) []Role {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(roles))
	var normalized []Role
	for _, role := range roles {
		role = NormalizeRole(role)
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}
