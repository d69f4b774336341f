package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-tracker/internal/apperr"
	"task-tracker/internal/auth"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
)

// UserInput is the data required to register a user.
type UserInput struct {
	Email      string
	Name       string
	Department string
	Roles      []string // defaults to staff
}

// UserUpdate carries a partial profile update. Nil fields are left alone.
type UserUpdate struct {
	Name       *string
	Department *string
	IsActive   *bool
}

// UserService wraps the user directory with the permission rules from the
// user-management routes.
type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Create registers a user with derived permissions. The email must be
// unused.
func (s *UserService) Create(ctx context.Context, input UserInput) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, apperr.Validationf("email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.Validationf("name is required")
	}
	if !model.ValidDepartment(input.Department) {
		return nil, apperr.Validationf("unknown department %q", input.Department)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.DuplicateEmailf("%s", email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{model.RoleStaff}
	}

	now := time.Now().UTC()
	user := model.User{
		ID:          uuid.NewString(),
		Email:       email,
		Name:        strings.TrimSpace(input.Name),
		Department:  input.Department,
		Roles:       roles,
		Permissions: auth.PermissionsForRoles(roles),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// Update applies a partial profile update. Department moves need
// manage_users; anyone may edit their own basic info, admins anyone's.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, update UserUpdate) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Department != nil {
		if err := auth.Require(actor, auth.PermManageUsers); err != nil {
			return nil, err
		}
		if !model.ValidDepartment(*update.Department) {
			return nil, apperr.Validationf("unknown department %q", *update.Department)
		}
	} else if actor.ID != id {
		if err := auth.Require(actor, auth.PermManageUsers); err != nil {
			return nil, err
		}
	}

	if update.Name != nil {
		if strings.TrimSpace(*update.Name) == "" {
			return nil, apperr.Validationf("name cannot be empty")
		}
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Department != nil {
		user.Department = *update.Department
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}

	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRoles replaces the role set and recomputes permissions. Requires
// manage_roles; handing out super_admin requires holding it.
func (s *UserService) UpdateRoles(ctx context.Context, actor *model.User, id string, roles []string) (*model.User, error) {
	if err := auth.Require(actor, auth.PermManageRoles); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, apperr.Validationf("roles cannot be empty")
	}
	if !auth.CanGrantRoles(actor, roles) {
		return nil, apperr.PermissionDeniedf("only a super admin may grant super_admin")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Roles = roles
	user.Permissions = auth.PermissionsForRoles(roles)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListByDepartment lists a department's users. Members see their own
// department; manage_users opens every department.
func (s *UserService) ListByDepartment(ctx context.Context, actor *model.User, department string) ([]model.User, error) {
	if actor.Department != department {
		if err := auth.Require(actor, auth.PermManageUsers); err != nil {
			return nil, err
		}
	}
	return s.users.ListByDepartment(ctx, department)
}

// ListByRole lists users holding a role. Requires manage_users.
func (s *UserService) ListByRole(ctx context.Context, actor *model.User, role string) ([]model.User, error) {
	if err := auth.Require(actor, auth.PermManageUsers); err != nil {
		return nil, err
	}
	return s.users.ListByRole(ctx, role)
}
