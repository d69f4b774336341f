package auth

import (
	"errors"
	"testing"

	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
)

func userWith(dept string, roles ...string) *model.User {
	return &model.User{
		ID:          "u-" + dept,
		Department:  dept,
		Roles:       roles,
		Permissions: PermissionsForRoles(roles),
	}
}

func TestRequire(t *testing.T) {
	staff := userWith("CSE", model.RoleStaff)

	if err := Require(staff, PermEditTask); err != nil {
		t.Fatalf("staff should hold edit_task: %v", err)
	}
	err := Require(staff, PermViewAllTasks)
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestCanAccess(t *testing.T) {
	staff := userWith("CSE", model.RoleStaff)
	admin := userWith("ADMIN", model.RoleAdmin)

	cases := []struct {
		name  string
		user  *model.User
		scope Scope
		want  bool
	}{
		{"view_all crosses departments", admin, Scope{Department: "ECE"}, true},
		{"own department", staff, Scope{Department: "CSE"}, true},
		{"other department", staff, Scope{Department: "ECE"}, false},
		{"creator", staff, Scope{Department: "ECE", CreatorID: staff.ID}, true},
		{"assignee", staff, Scope{Department: "ECE", AssigneeID: staff.ID}, true},
		{"nil user", nil, Scope{Department: "CSE"}, false},
		{"empty scope", staff, Scope{}, false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.user, tc.scope); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanGrantRoles(t *testing.T) {
	super := userWith("ADMIN", model.RoleSuperAdmin)
	admin := userWith("ADMIN", model.RoleAdmin)

	if !CanGrantRoles(super, []string{model.RoleSuperAdmin}) {
		t.Error("super admin should grant super_admin")
	}
	if CanGrantRoles(admin, []string{model.RoleSuperAdmin}) {
		t.Error("admin must not grant super_admin")
	}
	if !CanGrantRoles(admin, []string{model.RoleFaculty, model.RoleStaff}) {
		t.Error("admin should grant ordinary roles")
	}
}
