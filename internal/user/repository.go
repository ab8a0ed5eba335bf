// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, usr *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*User, error)
	Update(ctx context.Context, usr *User) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-backed user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, usr *User) error {
	err := r.db.WithContext(ctx).Create(usr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("A user with this email or provider identity already exists.")
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var usr User
	err := r.db.WithContext(ctx).First(&usr, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found.")
		}
		return nil, fmt.Errorf("finding user by id: %w", err)
	}
	return &usr, nil
}

func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var usr User
	err := r.db.WithContext(ctx).First(&usr, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found.")
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return &usr, nil
}

func (r *gormRepository) FindByProvider(ctx context.Context, provider, providerID string) (*User, error) {
	var usr User
	err := r.db.WithContext(ctx).
		First(&usr, "auth_provider = ? AND provider_id = ?", provider, providerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found.")
		}
		return nil, fmt.Errorf("finding user by provider identity: %w", err)
	}
	return &usr, nil
}

func (r *gormRepository) Update(ctx context.Context, usr *User) error {
	err := r.db.WithContext(ctx).Save(usr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("A user with this email or provider identity already exists.")
		}
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}
