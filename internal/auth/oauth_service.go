// File: internal/auth/oauth_service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"green_planet_backend/internal/config"
	"green_planet_backend/internal/shared"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Classification of exchange failures, used by the callback to pick the
// opaque error code it redirects with.
var (
	ErrCodeExchangeFailed = errors.New("authorization code exchange failed")
	ErrIdentityUnverified = errors.New("provider identity could not be verified")
)

// OAuthExchanger turns an authorization code into verified provider claims.
type OAuthExchanger interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*shared.ProviderClaims, error)
}

// GoogleOAuthService exchanges Google authorization codes and verifies the
// resulting ID token against Google's published keys.
type GoogleOAuthService struct {
	oauthConfig     *oauth2.Config
	exchangeTimeout time.Duration
	logger          *zap.Logger
	validate        func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleOAuthService creates a Google OAuth exchanger from configuration.
func NewGoogleOAuthService(cfg *config.Config, logger *zap.Logger) *GoogleOAuthService {
	return &GoogleOAuthService{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		exchangeTimeout: cfg.OAuthExchangeTimeout,
		logger:          logger.Named("GoogleOAuthService"),
		validate:        idtoken.Validate,
	}
}

// AuthCodeURL builds the provider consent URL carrying the CSRF state value.
func (s *GoogleOAuthService) AuthCodeURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode exchanges the authorization code under an explicit timeout and
// verifies the ID token's signature and audience before trusting any claim.
func (s *GoogleOAuthService) ExchangeCode(ctx context.Context, code string) (*shared.ProviderClaims, error) {
	exchangeCtx, cancel := context.WithTimeout(ctx, s.exchangeTimeout)
	defer cancel()

	token, err := s.oauthConfig.Exchange(exchangeCtx, code)
	if err != nil {
		s.logger.Warn("Code exchange with provider failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: provider response is missing the id_token", ErrIdentityUnverified)
	}

	payload, err := s.validate(exchangeCtx, rawIDToken, s.oauthConfig.ClientID)
	if err != nil {
		s.logger.Warn("ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnverified, err)
	}

	claims := &shared.ProviderClaims{ProviderID: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		claims.Email = email
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		claims.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		claims.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		claims.AvatarURL = picture
	}

	if claims.ProviderID == "" {
		return nil, fmt.Errorf("%w: id token carries no subject", ErrIdentityUnverified)
	}

	return claims, nil
}
