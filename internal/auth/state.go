// File: internal/auth/state.go
package auth

import (
	"net/http"
	"strings"

	"green_planet_backend/internal/config"

	"github.com/gin-gonic/gin"
)

// setOAuthStateCookie stores the CSRF state value in a short-lived cookie.
func setOAuthStateCookie(c *gin.Context, cfg *config.Config, state string) {
	c.SetSameSite(parseSameSite(cfg.OAuthCookieSameSite))
	c.SetCookie(
		cfg.OAuthStateCookieName,
		state,
		cfg.OAuthCookieMaxAgeMinutes*60,
		"/",
		cfg.OAuthCookieDomain,
		cfg.OAuthCookieSecure,
		cfg.OAuthCookieHTTPOnly,
	)
}

// readOAuthStateCookie returns the stored state value, or "" when absent.
func readOAuthStateCookie(c *gin.Context, cfg *config.Config) string {
	state, err := c.Cookie(cfg.OAuthStateCookieName)
	if err != nil {
		return ""
	}
	return state
}

// clearOAuthStateCookie removes the state cookie. The state is single use.
func clearOAuthStateCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(parseSameSite(cfg.OAuthCookieSameSite))
	c.SetCookie(
		cfg.OAuthStateCookieName,
		"",
		-1,
		"/",
		cfg.OAuthCookieDomain,
		cfg.OAuthCookieSecure,
		cfg.OAuthCookieHTTPOnly,
	)
}

func parseSameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
