// File: internal/auth/model.go
package auth

import "green_planet_backend/internal/user"

// RegisterRequest is the payload for local account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
}

// LoginRequest is the payload for local credential login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse is returned by the JSON auth endpoints.
type AuthResponse struct {
	User         user.UserResponse `json:"user"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    string            `json:"expires_at"`
	TokenType    string            `json:"token_type"`
}

// TokenPairResponse is returned by the refresh endpoint.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

// VerifyResponse echoes the verified bearer token back with its user.
type VerifyResponse struct {
	User  user.UserResponse `json:"user"`
	Token string            `json:"token"`
}
