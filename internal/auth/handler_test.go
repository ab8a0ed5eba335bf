// File: internal/auth/handler_test.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/config"
	"green_planet_backend/internal/middleware"
	"green_planet_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	args := m.Called(ctx, req)
	var usr *shared.User
	if args.Get(0) != nil {
		usr = args.Get(0).(*shared.User)
	}
	var tokens *shared.TokenResponse
	if args.Get(1) != nil {
		tokens = args.Get(1).(*shared.TokenResponse)
	}
	return usr, tokens, args.Error(2)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	var usr *shared.User
	if args.Get(0) != nil {
		usr = args.Get(0).(*shared.User)
	}
	var tokens *shared.TokenResponse
	if args.Get(1) != nil {
		tokens = args.Get(1).(*shared.TokenResponse)
	}
	return usr, tokens, args.Error(2)
}

func (m *mockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *mockUserService) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *mockUserService) FindOrCreateOrLinkProviderUser(ctx context.Context, claims shared.ProviderClaims) (*shared.User, bool, error) {
	args := m.Called(ctx, claims)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*shared.User), args.Bool(1), args.Error(2)
}

type stubExchanger struct {
	claims *shared.ProviderClaims
	err    error
}

func (s *stubExchanger) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubExchanger) ExchangeCode(ctx context.Context, code string) (*shared.ProviderClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func handlerTestConfig() *config.Config {
	return &config.Config{
		FrontendURL:              "http://frontend.test",
		OAuthStateCookieName:     "gp_oauth_state",
		OAuthCookieMaxAgeMinutes: 10,
		OAuthCookieHTTPOnly:      true,
		OAuthCookieSameSite:      "Lax",
		JWTSecretKey:             "handler-test-secret",
		JWTRefreshSecretKey:      "handler-test-refresh",
		JWTAccessTokenExpiry:     15 * time.Minute,
		JWTRefreshTokenExpiry:    7 * 24 * time.Hour,
	}
}

func setupRouter(t *testing.T, cfg *config.Config, userSvc shared.Service, exchanger OAuthExchanger) (*gin.Engine, shared.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokenSvc := NewJWTService(cfg)
	h := NewHandler(cfg, userSvc, tokenSvc, exchanger, zap.NewNop())

	router := gin.New()
	api := router.Group("/api")
	h.RegisterRoutes(api, middleware.AuthMiddleware(tokenSvc, zap.NewNop()))
	return router, tokenSvc
}

func callbackRedirect(t *testing.T, router *gin.Engine, target string, cookies ...*http.Cookie) *url.URL {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func TestGoogleLogin_SetsStateCookieAndRedirects(t *testing.T) {
	cfg := handlerTestConfig()
	router, _ := setupRouter(t, cfg, new(mockUserService), &stubExchanger{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	var stateCookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == cfg.OAuthStateCookieName {
			stateCookie = ck
		}
	}
	require.NotNil(t, stateCookie, "state cookie must be set")
	require.NotEmpty(t, stateCookie.Value)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, stateCookie.Value, loc.Query().Get("state"))
}

func TestGoogleCallback_ProviderError(t *testing.T) {
	router, _ := setupRouter(t, handlerTestConfig(), new(mockUserService), &stubExchanger{})

	loc := callbackRedirect(t, router, "/api/auth/google/callback?error=access_denied")

	assert.Equal(t, "http://frontend.test", loc.Scheme+"://"+loc.Host)
	assert.Equal(t, "/auth/callback", loc.Path)
	assert.Equal(t, "provider_error", loc.Query().Get("error"))
	assert.Empty(t, loc.Query().Get("token"))
}

func TestGoogleCallback_MissingCode(t *testing.T) {
	router, _ := setupRouter(t, handlerTestConfig(), new(mockUserService), &stubExchanger{})

	loc := callbackRedirect(t, router, "/api/auth/google/callback")

	assert.Equal(t, "/auth/callback", loc.Path)
	assert.Equal(t, "missing_code", loc.Query().Get("error"))
}

func TestGoogleCallback_StateMismatch(t *testing.T) {
	cfg := handlerTestConfig()
	router, _ := setupRouter(t, cfg, new(mockUserService), &stubExchanger{})

	loc := callbackRedirect(t, router,
		"/api/auth/google/callback?code=abc&state=attacker-value",
		&http.Cookie{Name: cfg.OAuthStateCookieName, Value: "real-state"})

	assert.Equal(t, "state_mismatch", loc.Query().Get("error"))
}

func TestGoogleCallback_MissingStateCookie(t *testing.T) {
	router, _ := setupRouter(t, handlerTestConfig(), new(mockUserService), &stubExchanger{})

	loc := callbackRedirect(t, router, "/api/auth/google/callback?code=abc&state=some-state")

	assert.Equal(t, "state_mismatch", loc.Query().Get("error"))
}

func TestGoogleCallback_ExchangeFailure(t *testing.T) {
	cfg := handlerTestConfig()
	exchanger := &stubExchanger{err: fmt.Errorf("%w: provider unreachable", ErrCodeExchangeFailed)}
	router, _ := setupRouter(t, cfg, new(mockUserService), exchanger)

	loc := callbackRedirect(t, router,
		"/api/auth/google/callback?code=abc&state=real-state",
		&http.Cookie{Name: cfg.OAuthStateCookieName, Value: "real-state"})

	assert.Equal(t, "exchange_failed", loc.Query().Get("error"))
}

func TestGoogleCallback_UnverifiedIdentity(t *testing.T) {
	cfg := handlerTestConfig()
	exchanger := &stubExchanger{err: fmt.Errorf("%w: bad audience", ErrIdentityUnverified)}
	router, _ := setupRouter(t, cfg, new(mockUserService), exchanger)

	loc := callbackRedirect(t, router,
		"/api/auth/google/callback?code=abc&state=real-state",
		&http.Cookie{Name: cfg.OAuthStateCookieName, Value: "real-state"})

	assert.Equal(t, "identity_unverified", loc.Query().Get("error"))
}

func TestRefresh_RotatesBothTokens(t *testing.T) {
	cfg := handlerTestConfig()
	userSvc := new(mockUserService)
	usr := &shared.User{ID: uuid.New(), Role: "user"}
	userSvc.On("GetUserByID", mock.Anything, usr.ID).Return(usr, nil)

	router, tokenSvc := setupRouter(t, cfg, userSvc, &stubExchanger{})

	refreshToken, _, err := tokenSvc.GenerateRefreshToken(usr)
	require.NoError(t, err)

	body := strings.NewReader(fmt.Sprintf(`{"refresh_token":%q}`, refreshToken))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data TokenPairResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)
	require.NotEmpty(t, resp.Data.RefreshToken)
	assert.NotEqual(t, refreshToken, resp.Data.RefreshToken)

	accessClaims, err := tokenSvc.ValidateToken(resp.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, accessClaims.UserID)

	refreshClaims, err := tokenSvc.ParseRefreshToken(resp.Data.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, refreshClaims.UserID)
}

func TestRefresh_RejectsAccessTokenAsRefresh(t *testing.T) {
	cfg := handlerTestConfig()
	userSvc := new(mockUserService)
	usr := &shared.User{ID: uuid.New(), Role: "user"}

	router, tokenSvc := setupRouter(t, cfg, userSvc, &stubExchanger{})

	accessToken, _, err := tokenSvc.GenerateAccessToken(usr)
	require.NoError(t, err)

	body := strings.NewReader(fmt.Sprintf(`{"refresh_token":%q}`, accessToken))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	userSvc.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestRefresh_UserGone(t *testing.T) {
	cfg := handlerTestConfig()
	userSvc := new(mockUserService)
	usr := &shared.User{ID: uuid.New(), Role: "user"}
	userSvc.On("GetUserByID", mock.Anything, usr.ID).
		Return(nil, common.ErrNotFound.WithDetails("User not found."))

	router, tokenSvc := setupRouter(t, cfg, userSvc, &stubExchanger{})

	refreshToken, _, err := tokenSvc.GenerateRefreshToken(usr)
	require.NoError(t, err)

	body := strings.NewReader(fmt.Sprintf(`{"refresh_token":%q}`, refreshToken))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerify_EchoesBearerTokenWithUser(t *testing.T) {
	cfg := handlerTestConfig()
	userSvc := new(mockUserService)
	usr := &shared.User{ID: uuid.New(), Role: "user"}
	userSvc.On("GetUserByID", mock.Anything, usr.ID).Return(usr, nil)

	router, tokenSvc := setupRouter(t, cfg, userSvc, &stubExchanger{})

	accessToken, _, err := tokenSvc.GenerateAccessToken(usr)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data VerifyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, usr.ID.String(), resp.Data.User.ID)
	assert.Equal(t, accessToken, resp.Data.Token)
}

func TestGoogleCallback_Success(t *testing.T) {
	cfg := handlerTestConfig()
	userSvc := new(mockUserService)
	usr := &shared.User{ID: uuid.New(), Role: "user"}
	userSvc.On("FindOrCreateOrLinkProviderUser", mock.Anything, mock.MatchedBy(func(c shared.ProviderClaims) bool {
		return c.ProviderID == "g-77"
	})).Return(usr, true, nil)

	exchanger := &stubExchanger{claims: &shared.ProviderClaims{
		ProviderID:    "g-77",
		Email:         "new@x.com",
		EmailVerified: true,
	}}
	router, tokenSvc := setupRouter(t, cfg, userSvc, exchanger)

	loc := callbackRedirect(t, router,
		"/api/auth/google/callback?code=abc&state=real-state",
		&http.Cookie{Name: cfg.OAuthStateCookieName, Value: "real-state"})

	assert.Equal(t, "/auth/callback", loc.Path)
	assert.Empty(t, loc.Query().Get("error"))
	assert.Equal(t, usr.ID.String(), loc.Query().Get("userId"))

	accessClaims, err := tokenSvc.ValidateToken(loc.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, accessClaims.UserID)

	refreshClaims, err := tokenSvc.ParseRefreshToken(loc.Query().Get("refreshToken"))
	require.NoError(t, err)
	assert.Equal(t, usr.ID, refreshClaims.UserID)
}
