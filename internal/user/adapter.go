// File: internal/user/adapter.go
package user

import "green_planet_backend/internal/shared"

// DBToShared converts the persistence model to the shared representation.
func DBToShared(usr *User) *shared.User {
	if usr == nil {
		return nil
	}
	return &shared.User{
		ID:           usr.ID,
		Email:        usr.Email,
		Name:         usr.Name,
		AvatarURL:    usr.AvatarURL,
		Role:         usr.Role,
		AuthProvider: usr.AuthProvider,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLoginAt:  usr.LastLoginAt,
	}
}

// SharedToResponse converts a shared user to the public API representation.
func SharedToResponse(usr *shared.User) UserResponse {
	return UserResponse{
		ID:           usr.ID.String(),
		Email:        usr.Email,
		Name:         usr.Name,
		AvatarURL:    usr.AvatarURL,
		Role:         usr.Role,
		AuthProvider: usr.AuthProvider,
		LastLoginAt:  usr.LastLoginAt,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}
