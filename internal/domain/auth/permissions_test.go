package auth

import "testing"

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if !role.Valid() {
			t.Fatalf("permissions declared for invalid role %q", role)
		}
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
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
}

func TestEveryRoleHasPermissions(t *testing.T) {
	for _, role := range Roles() {
		if _, ok := RolePermissions[role]; !ok {
			t.Fatalf("role %s missing from RolePermissions", role)
		}
	}
}

func TestCanMatrix(t *testing.T) {
	cases := []struct {
		role Role
		perm string
		want bool
	}{
		{RoleEmployee, PermLeaveWrite, true},
		{RoleEmployee, PermLeaveRead, true},
		{RoleEmployee, PermLeaveApprove, false},
		{RoleEmployee, PermReportsRead, false},
		{RoleEmployee, PermEmployeesRead, false},
		{RoleHR, PermLeaveApprove, true},
		{RoleHR, PermLeaveWrite, true},
		{RoleHR, PermEmployeesRead, true},
		{RoleHR, PermEmployeesWrite, false},
		{RoleAdmin, PermEmployeesWrite, true},
		{RoleAdmin, PermLeaveApprove, true},
		{RoleAdmin, PermAuditRead, true},
		{RoleHR, PermAuditRead, false},
		{Role("Manager"), PermLeaveRead, false},
		{Role(""), PermLeaveRead, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" hr ")
	if err != nil || role != RoleHR {
		t.Fatalf("expected HR, got %q err=%v", role, err)
	}
	if _, err := ParseRole("Manager"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if CanReview(RoleEmployee) || !CanReview(RoleAdmin) {
		t.Fatal("review capability mismatch")
	}
}
