package model

import "time"

// Role names, ordered by privilege.
const (
	RoleSuperAdmin     = "super_admin"
	RoleAdmin          = "admin"
	RoleDepartmentHead = "department_head"
	RoleFaculty        = "faculty"
	RoleStaff          = "staff"
)

// User is a directory record. Permissions are derived from Roles and are
// recomputed on every role change, never edited directly.
type User struct {
	ID          string `gorm:"primaryKey"`
	Email       string `gorm:"uniqueIndex"`
	Name        string
	Department  string   `gorm:"index"`
	Roles       []string `gorm:"serializer:json"`
	Permissions []string `gorm:"serializer:json"`
	IsActive    bool     `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
