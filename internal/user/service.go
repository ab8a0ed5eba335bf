// File: internal/user/service.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	repo     Repository
	tokenSvc shared.TokenService
	logger   *zap.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, tokenSvc shared.TokenService, logger *zap.Logger) shared.Service {
	return &service{
		repo:     repo,
		tokenSvc: tokenSvc,
		logger:   logger.Named("UserService"),
	}
}

// normalizeEmail lowercases and trims an address so uniqueness and lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	hash, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, nil, common.ErrInternalServer.WithDetails("Could not process registration.")
	}

	email := normalizeEmail(req.Email)
	usr := &User{
		Email:        &email,
		PasswordHash: hash,
		Name:         &req.Name,
		AuthProvider: common.AuthProviderLocal,
		Role:         common.RoleUser,
	}

	if err := s.repo.Create(ctx, usr); err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == common.ErrConflict.Code {
			return nil, nil, common.ErrConflict.WithDetails("An account with this email already exists.")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, nil, common.ErrInternalServer
	}

	sharedUser := DBToShared(usr)
	tokens, err := s.issueTokens(sharedUser)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("User registered", zap.String("userID", usr.ID.String()))
	return sharedUser, tokens, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	usr, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if common.IsErrCode(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
		}
		s.logger.Error("Failed to look up user for login", zap.Error(err))
		return nil, nil, common.ErrInternalServer
	}

	// Accounts created through an OAuth provider carry no password hash.
	if usr.PasswordHash == "" || !common.CheckPasswordHash(password, usr.PasswordHash) {
		return nil, nil, common.ErrUnauthorized.WithDetails("Invalid email or password.")
	}

	now := time.Now()
	usr.LastLoginAt = &now
	if err := s.repo.Update(ctx, usr); err != nil {
		s.logger.Warn("Failed to record login time", zap.String("userID", usr.ID.String()), zap.Error(err))
	}

	sharedUser := DBToShared(usr)
	tokens, err := s.issueTokens(sharedUser)
	if err != nil {
		return nil, nil, err
	}

	return sharedUser, tokens, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	usr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return DBToShared(usr), nil
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	usr, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return DBToShared(usr), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	usr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		usr.Name = req.Name
	}
	if req.AvatarURL != nil {
		usr.AvatarURL = req.AvatarURL
	}

	if err := s.repo.Update(ctx, usr); err != nil {
		s.logger.Error("Failed to update profile", zap.String("userID", id.String()), zap.Error(err))
		return nil, err
	}

	return DBToShared(usr), nil
}

// refreshProfileFromClaims applies the provider's profile assertions to the
// account. Avatar and display name are last-write-wins on each login.
func refreshProfileFromClaims(usr *User, claims shared.ProviderClaims) {
	if claims.AvatarURL != "" {
		avatar := claims.AvatarURL
		usr.AvatarURL = &avatar
	}
	if claims.Name != "" {
		name := claims.Name
		usr.Name = &name
	}
}

// FindOrCreateOrLinkProviderUser resolves an OAuth identity to a local account.
// Resolution order: by provider identity, then by verified email (linking the
// provider to the existing account), then by creating a fresh account.
func (s *service) FindOrCreateOrLinkProviderUser(ctx context.Context, claims shared.ProviderClaims) (*shared.User, bool, error) {
	now := time.Now()

	usr, err := s.repo.FindByProvider(ctx, common.AuthProviderGoogle, claims.ProviderID)
	if err == nil {
		refreshProfileFromClaims(usr, claims)
		usr.LastLoginAt = &now
		if updErr := s.repo.Update(ctx, usr); updErr != nil {
			s.logger.Warn("Failed to record provider login time", zap.String("userID", usr.ID.String()), zap.Error(updErr))
		}
		return DBToShared(usr), false, nil
	}
	if !common.IsErrCode(err, common.ErrNotFound) {
		s.logger.Error("Failed to look up provider identity", zap.Error(err))
		return nil, false, common.ErrInternalServer
	}

	// Link only when the provider attests the email; an unverified address
	// must not take over an existing account.
	if claims.EmailVerified && claims.Email != "" {
		existing, emailErr := s.repo.FindByEmail(ctx, normalizeEmail(claims.Email))
		if emailErr == nil {
			providerID := claims.ProviderID
			existing.ProviderID = &providerID
			existing.AuthProvider = common.AuthProviderGoogle
			refreshProfileFromClaims(existing, claims)
			existing.LastLoginAt = &now
			if updErr := s.repo.Update(ctx, existing); updErr != nil {
				s.logger.Error("Failed to link provider identity", zap.String("userID", existing.ID.String()), zap.Error(updErr))
				return nil, false, updErr
			}
			s.logger.Info("Linked provider identity to existing account",
				zap.String("userID", existing.ID.String()))
			return DBToShared(existing), false, nil
		}
		if !common.IsErrCode(emailErr, common.ErrNotFound) {
			s.logger.Error("Failed to look up user by email", zap.Error(emailErr))
			return nil, false, common.ErrInternalServer
		}
	}

	providerID := claims.ProviderID
	usr = &User{
		AuthProvider: common.AuthProviderGoogle,
		ProviderID:   &providerID,
		Role:         common.RoleUser,
		LastLoginAt:  &now,
	}
	if claims.Email != "" {
		email := normalizeEmail(claims.Email)
		usr.Email = &email
	}
	refreshProfileFromClaims(usr, claims)

	if err := s.repo.Create(ctx, usr); err != nil {
		s.logger.Error("Failed to create provider user", zap.Error(err))
		return nil, false, err
	}

	s.logger.Info("Created user from provider identity", zap.String("userID", usr.ID.String()))
	return DBToShared(usr), true, nil
}

func (s *service) issueTokens(usr *shared.User) (*shared.TokenResponse, error) {
	accessToken, expiresAt, err := s.tokenSvc.GenerateAccessToken(usr)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not issue tokens.")
	}
	refreshToken, _, err := s.tokenSvc.GenerateRefreshToken(usr)
	if err != nil {
		s.logger.Error("Failed to generate refresh token", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not issue tokens.")
	}
	return &shared.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}
