// File: internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"
	"net/url"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/config"
	"green_planet_backend/internal/middleware"
	"green_planet_backend/internal/platform/crypto"
	"green_planet_backend/internal/shared"
	"green_planet_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Opaque error codes surfaced to the frontend via the callback redirect.
// They deliberately reveal nothing about internals.
const (
	callbackErrProvider           = "provider_error"
	callbackErrMissingCode        = "missing_code"
	callbackErrStateMismatch      = "state_mismatch"
	callbackErrExchangeFailed     = "exchange_failed"
	callbackErrIdentityUnverified = "identity_unverified"
	callbackErrAccountConflict    = "account_conflict"
	callbackErrLoginFailed        = "login_failed"
)

// Handler handles authentication endpoints.
type Handler struct {
	cfg         *config.Config
	userService shared.Service
	tokenSvc    shared.TokenService
	exchanger   OAuthExchanger
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(cfg *config.Config, userService shared.Service, tokenSvc shared.TokenService, exchanger OAuthExchanger, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:         cfg,
		userService: userService,
		tokenSvc:    tokenSvc,
		exchanger:   exchanger,
		logger:      logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the auth routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.GET("/google", h.GoogleLogin)
		authGroup.GET("/google/callback", h.GoogleCallback)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/verify", authMW, h.Verify)
		authGroup.GET("/me", authMW, h.Me)
	}
}

// GoogleLogin starts the OAuth flow: it issues a CSRF state value, stores it
// in a cookie and redirects the browser to the provider consent page.
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, err := crypto.GenerateSecureRandomString(32)
	if err != nil {
		h.logger.Error("Failed to generate OAuth state", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not start the sign-in flow."))
		return
	}

	setOAuthStateCookie(c, h.cfg, state)
	c.Redirect(http.StatusTemporaryRedirect, h.exchanger.AuthCodeURL(state))
}

// GoogleCallback completes the OAuth flow. Whatever happens, the browser ends
// up redirected to the frontend callback page: with tokens on success, with an
// opaque error code otherwise. It never renders a bare JSON error.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Warn("Provider returned an error", zap.String("error", providerErr))
		h.redirectWithError(c, callbackErrProvider)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectWithError(c, callbackErrMissingCode)
		return
	}

	expectedState := readOAuthStateCookie(c, h.cfg)
	clearOAuthStateCookie(c, h.cfg)
	if expectedState == "" || c.Query("state") != expectedState {
		h.logger.Warn("OAuth state mismatch")
		h.redirectWithError(c, callbackErrStateMismatch)
		return
	}

	claims, err := h.exchanger.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ErrIdentityUnverified):
			h.redirectWithError(c, callbackErrIdentityUnverified)
		default:
			h.redirectWithError(c, callbackErrExchangeFailed)
		}
		return
	}

	usr, wasCreated, err := h.userService.FindOrCreateOrLinkProviderUser(c.Request.Context(), *claims)
	if err != nil {
		if common.IsErrCode(err, common.ErrConflict) {
			h.redirectWithError(c, callbackErrAccountConflict)
			return
		}
		h.logger.Error("Identity resolution failed", zap.Error(err))
		h.redirectWithError(c, callbackErrLoginFailed)
		return
	}

	accessToken, _, err := h.tokenSvc.GenerateAccessToken(usr)
	if err != nil {
		h.logger.Error("Failed to generate access token", zap.Error(err))
		h.redirectWithError(c, callbackErrLoginFailed)
		return
	}
	refreshToken, _, err := h.tokenSvc.GenerateRefreshToken(usr)
	if err != nil {
		h.logger.Error("Failed to generate refresh token", zap.Error(err))
		h.redirectWithError(c, callbackErrLoginFailed)
		return
	}

	h.logger.Info("OAuth sign-in completed",
		zap.String("userID", usr.ID.String()),
		zap.Bool("created", wasCreated))

	params := url.Values{}
	params.Set("token", accessToken)
	params.Set("refreshToken", refreshToken)
	params.Set("userId", usr.ID.String())
	c.Redirect(http.StatusFound, h.frontendCallbackURL(params))
}

func (h *Handler) redirectWithError(c *gin.Context, code string) {
	params := url.Values{}
	params.Set("error", code)
	c.Redirect(http.StatusFound, h.frontendCallbackURL(params))
}

func (h *Handler) frontendCallbackURL(params url.Values) string {
	return h.cfg.FrontendURL + "/auth/callback?" + params.Encode()
}

// Register creates a local account and signs the user in.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	usr, tokens, err := h.userService.Register(c.Request.Context(), shared.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Registration successful.", authResponse(usr, tokens))
}

// Login signs in a local account with email and password.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	usr, tokens, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Login successful.", authResponse(usr, tokens))
}

// Refresh rotates a refresh token: both tokens are reissued, reflecting the
// user's current state.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	claims, err := h.tokenSvc.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token."))
		return
	}

	usr, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token."))
		return
	}

	accessToken, expiresAt, err := h.tokenSvc.GenerateAccessToken(usr)
	if err != nil {
		h.logger.Error("Failed to generate access token", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}
	refreshToken, _, err := h.tokenSvc.GenerateRefreshToken(usr)
	if err != nil {
		h.logger.Error("Failed to generate refresh token", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}

	common.RespondOK(c, "Token refreshed.", TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		TokenType:    "Bearer",
	})
}

// Logout acknowledges a sign-out. Tokens are stateless, so the client simply
// discards them.
func (h *Handler) Logout(c *gin.Context) {
	common.RespondOK(c, "Logged out successfully.", nil)
}

// Verify confirms the bearer token is valid and its user still exists.
func (h *Handler) Verify(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	usr, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Token is valid.", VerifyResponse{
		User:  user.SharedToResponse(usr),
		Token: middleware.GetBearerToken(c),
	})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	usr, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "User profile retrieved successfully.", user.SharedToResponse(usr))
}

func authResponse(usr *shared.User, tokens *shared.TokenResponse) AuthResponse {
	return AuthResponse{
		User:         user.SharedToResponse(usr),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		TokenType:    tokens.TokenType,
	}
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request body."))
		return false
	}
	return true
}
