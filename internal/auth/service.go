// File: internal/auth/service.go
package auth

import (
	"fmt"
	"time"

	"green_planet_backend/internal/config"
	"green_planet_backend/internal/shared"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTService implements shared.TokenService using HMAC-signed JWTs.
// Access tokens carry identity claims; refresh tokens carry only the user id
// and are signed with a separate secret.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
}

// NewJWTService creates a JWTService from configuration.
func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		accessSecret:  []byte(cfg.JWTSecretKey),
		refreshSecret: []byte(cfg.RefreshSecret()),
		accessExpiry:  cfg.JWTAccessTokenExpiry,
		refreshExpiry: cfg.JWTRefreshTokenExpiry,
		issuer:        "green_planet_backend",
	}
}

// GenerateAccessToken creates a signed access token for the given user.
func (s *JWTService) GenerateAccessToken(userData shared.UserDataForToken) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessExpiry)

	claims := &shared.Claims{
		UserID: userData.GetID(),
		Role:   userData.GetRole(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userData.GetID().String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if email := userData.GetEmail(); email != nil {
		claims.Email = *email
	}
	if name := userData.GetName(); name != nil {
		claims.Name = *name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// GenerateRefreshToken creates a signed refresh token carrying only the user id.
func (s *JWTService) GenerateRefreshToken(userData shared.UserDataForToken) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.refreshExpiry)

	claims := &shared.Claims{
		UserID: userData.GetID(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userData.GetID().String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing refresh token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates an access token.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	return s.parse(tokenString, s.accessSecret)
}

// ParseRefreshToken parses and validates a refresh token against the refresh secret.
func (s *JWTService) ParseRefreshToken(refreshTokenString string) (*shared.Claims, error) {
	claims, err := s.parse(refreshTokenString, s.refreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("refresh token carries no user id")
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string, secret []byte) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	return claims, nil
}
