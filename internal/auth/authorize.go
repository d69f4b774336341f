package auth

import (
	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
)

// Scope describes the resource a caller wants to touch. Zero-value fields
// are ignored by the visibility check.
type Scope struct {
	Department string
	CreatorID  string
	AssigneeID string
}

// Require returns a typed denial unless the user holds the permission.
func Require(u *model.User, perm string) error {
	if !Has(u, perm) {
		return apperr.PermissionDeniedf("requires %s", perm)
	}
	return nil
}

// CanAccess is the visibility rule shared by reads and mutations: a caller
// sees a resource when they view all tasks, share its department, created
// it, or are assigned to it.
func CanAccess(u *model.User, scope Scope) bool {
	if u == nil {
		return false
	}
	if Has(u, PermViewAllTasks) {
		return true
	}
	if scope.Department != "" && scope.Department == u.Department {
		return true
	}
	if scope.CreatorID != "" && scope.CreatorID == u.ID {
		return true
	}
	if scope.AssigneeID != "" && scope.AssigneeID == u.ID {
		return true
	}
	return false
}

// RequireAccess returns a typed denial unless CanAccess holds.
func RequireAccess(u *model.User, scope Scope) error {
	if !CanAccess(u, scope) {
		return apperr.PermissionDeniedf("outside caller's department scope")
	}
	return nil
}

// CanGrantRoles enforces the self-escalation rule: only a super admin may
// hand out the super_admin role.
func CanGrantRoles(actor *model.User, roles []string) bool {
	for _, role := range roles {
		if role == model.RoleSuperAdmin && !actor.HasRole(model.RoleSuperAdmin) {
			return false
		}
	}
	return true
}
