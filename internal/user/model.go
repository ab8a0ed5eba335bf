// File: internal/user/model.go
package user

import (
	"time"

	"green_planet_backend/internal/common"
)

// User is the GORM model for user accounts.
// Email and ProviderID carry unique indexes so duplicate detection happens
// at the storage layer rather than in service code.
type User struct {
	common.BaseModel
	Email        *string    `gorm:"uniqueIndex;size:255"`
	PasswordHash string     `gorm:"size:255"`
	Name         *string    `gorm:"size:255"`
	AvatarURL    *string    `gorm:"size:512"`
	AuthProvider string     `gorm:"size:32;not null;default:'local'"`
	ProviderID   *string    `gorm:"uniqueIndex;size:255"`
	Role         string     `gorm:"size:32;not null;default:'user'"`
	LastLoginAt  *time.Time `gorm:""`
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}

// UserResponse is the public representation of a user.
type UserResponse struct {
	ID           string     `json:"id"`
	Email        *string    `json:"email"`
	Name         *string    `json:"name"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	Role         string     `json:"role"`
	AuthProvider string     `json:"auth_provider"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToUserResponse converts a User model to its API representation.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
