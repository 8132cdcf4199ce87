package auth

import "testing"

func TestRolePermissions(t *testing.T) {
	if !Allowed(RoleEmployee, PermHoursSubmit) {
		t.Fatal("employees submit hours")
	}
	for _, perm := range []string{PermHoursRead, PermTipsWrite, PermTipsRead} {
		if Allowed(RoleEmployee, perm) {
			t.Fatalf("employee must not have %s", perm)
		}
		if !Allowed(RoleManager, perm) {
			t.Fatalf("manager must have %s", perm)
		}
	}
	if Allowed("owner", PermHoursSubmit) {
		t.Fatal("unknown roles have no permissions")
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if _, ok := seen[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}
