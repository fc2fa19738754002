package auth

import "testing"

func TestPermissionsForRole(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		holds   []Permission
		missing []Permission
	}{
		{
			name:    "viewer reads only",
			role:    RoleViewer,
			holds:   []Permission{PermTodoRead},
			missing: []Permission{PermTodoCreate, PermTodoDelete, PermOrgManage},
		},
		{
			name:    "member reads but cannot mutate",
			role:    RoleMember,
			holds:   []Permission{PermTodoRead, PermOrgRead},
			missing: []Permission{PermTodoCreate, PermTodoUpdate, PermTodoDelete, PermOrgManage},
		},
		{
			name:    "admin deletes but does not manage org",
			role:    RoleAdmin,
			holds:   []Permission{PermTodoRead, PermTodoCreate, PermTodoUpdate, PermTodoDelete, PermOrgRead},
			missing: []Permission{PermOrgManage},
		},
		{
			name:  "owner holds everything",
			role:  RoleOwner,
			holds: []Permission{PermTodoRead, PermTodoCreate, PermTodoUpdate, PermTodoDelete, PermOrgRead, PermOrgManage},
		},
		{
			name:    "case and whitespace normalized",
			role:    Role("  Admin "),
			holds:   []Permission{PermTodoDelete},
			missing: []Permission{PermOrgManage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := PermissionsForRole(tt.role)
			for _, p := range tt.holds {
				if !set.Has(p) {
					t.Fatalf("role %q should hold %q", tt.role, p)
				}
			}
			for _, p := range tt.missing {
				if set.Has(p) {
					t.Fatalf("role %q should not hold %q", tt.role, p)
				}
			}
		})
	}
}

func TestUnknownRoleYieldsEmptySet(t *testing.T) {
	set := PermissionsForRole("intern")
	if len(set) != 0 {
		t.Fatalf("unknown role must resolve to the empty set, got %v", set)
	}
	if set.Has(PermTodoRead) {
		t.Fatalf("unknown role must hold no permissions")
	}
}

func TestNormalizeRolesDedupes(t *testing.T) {
	roles := NormalizeRoles([]Role{"Admin", "admin", " viewer ", ""})
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}
	if roles[0] != RoleAdmin || roles[1] != RoleViewer {
		t.Fatalf("unexpected normalization result: %v", roles)
	}
}
