// Package auth holds the pure role-to-permission mapping and the single
// authorization evaluator every service operation goes through.
package auth

import (
	"sort"

	"task-tracker/internal/model"
)

// Permission tags. Each names one allowed action.
const (
	PermManageUsers        = "manage_users"
	PermManageRoles        = "manage_roles"
	PermManageDepartments  = "manage_departments"
	PermCreateTask         = "create_task"
	PermEditTask           = "edit_task"
	PermDeleteTask         = "delete_task"
	PermViewAllTasks       = "view_all_tasks"
	PermApproveTask        = "approve_task"
	PermGenerateReports    = "generate_reports"
	PermGenerateDeptReport = "generate_department_reports"
	PermAccessArchives     = "access_archives"
	PermViewDeptTasks      = "view_department_tasks"
	PermViewAssignedTasks  = "view_assigned_tasks"
)

// rolePermissions is the fixed permission set each role contributes.
// A user's permissions are always exactly the union across their roles.
var rolePermissions = map[string][]string{
	model.RoleSuperAdmin: {
		PermManageUsers, PermManageRoles, PermManageDepartments,
		PermCreateTask, PermEditTask, PermDeleteTask, PermViewAllTasks,
		PermApproveTask, PermGenerateReports, PermAccessArchives,
		PermViewDeptTasks, PermViewAssignedTasks,
	},
	model.RoleAdmin: {
		PermManageUsers, PermManageRoles,
		PermCreateTask, PermEditTask, PermViewAllTasks,
		PermApproveTask, PermGenerateReports, PermAccessArchives,
		PermViewDeptTasks, PermViewAssignedTasks,
	},
	model.RoleDepartmentHead: {
		PermCreateTask, PermEditTask, PermViewDeptTasks,
		PermApproveTask, PermGenerateReports, PermGenerateDeptReport,
		PermViewAssignedTasks,
	},
	model.RoleFaculty: {
		PermCreateTask, PermEditTask, PermViewDeptTasks,
		PermApproveTask, PermGenerateReports, PermViewAssignedTasks,
	},
	model.RoleStaff: {
		PermCreateTask, PermEditTask, PermViewAssignedTasks,
		PermGenerateReports,
	},
}

// PermissionsForRoles returns the sorted union of the fixed permission
// sets of the given roles. Unknown roles contribute nothing.
func PermissionsForRoles(roles []string) []string {
	set := make(map[string]struct{})
	for _, role := range roles {
		for _, perm := range rolePermissions[role] {
			set[perm] = struct{}{}
		}
	}
	perms := make([]string, 0, len(set))
	for perm := range set {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms
}

// Has reports whether the user holds the permission.
func Has(u *model.User, perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
