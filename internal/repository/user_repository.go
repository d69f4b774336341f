package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"task-tracker/internal/apperr"
	"task-tracker/internal/model"
)

// UserRepository handles the users collection.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return apperr.Persistence("create user", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFoundf("user %s", email)
	default:
		return nil, apperr.Persistence("find user by email", err)
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFoundf("user %s", id)
	default:
		return nil, apperr.Persistence("find user by id", err)
	}
}

// Save writes the whole user document back, bumping the modification time.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return apperr.Persistence("save user", err)
	}
	return nil
}

func (r *UserRepository) ListByDepartment(ctx context.Context, department string) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("department = ?", department).
		Order("name ASC").Find(&users).Error; err != nil {
		return nil, apperr.Persistence("list users by department", err)
	}
	return users, nil
}

// ListByRole scans for users holding the role. Roles live in a serialized
// JSON column, so the match runs in Go.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, apperr.Persistence("list users by role", err)
	}
	matched := users[:0]
	for _, u := range users {
		if u.HasRole(role) {
			matched = append(matched, u)
		}
	}
	return matched, nil
}
