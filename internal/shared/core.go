// File: internal/shared/core.go
package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User represents a user outside the persistence layer.
type User struct {
	ID           uuid.UUID
	Email        *string
	Name         *string
	AvatarURL    *string
	Role         string
	AuthProvider string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  *time.Time
}

// CreateUserRequest represents a request to create a new local user.
type CreateUserRequest struct {
	Email    string
	Password string
	Name     string
}

// UpdateProfileRequest carries the profile fields a user may change.
type UpdateProfileRequest struct {
	Name      *string
	AvatarURL *string
}

// ProviderClaims holds the identity assertions returned by the OAuth provider
// after code exchange.
type ProviderClaims struct {
	ProviderID    string
	Email         string
	Name          string
	AvatarURL     string
	EmailVerified bool
}

// TokenResponse represents the response containing JWT tokens.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// Claims represents the JWT claims structure. Refresh tokens carry only the
// user id; they must not be used for authorization directly.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Name   string    `json:"name,omitempty"`
	Role   string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() *string
	GetName() *string
	GetRole() string
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	GenerateRefreshToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
	ParseRefreshToken(refreshTokenString string) (*Claims, error)
}

// Service defines the interface for user-related business logic.
type Service interface {
	Register(ctx context.Context, req CreateUserRequest) (*User, *TokenResponse, error)
	Login(ctx context.Context, email, password string) (*User, *TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
	FindOrCreateOrLinkProviderUser(ctx context.Context, claims ProviderClaims) (usr *User, wasCreated bool, err error)
}

func (u *User) GetID() uuid.UUID { return u.ID }

func (u *User) GetEmail() *string { return u.Email }

func (u *User) GetName() *string { return u.Name }

func (u *User) GetRole() string { return u.Role }
