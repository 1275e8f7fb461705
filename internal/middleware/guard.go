package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the hydrated session.
const ContextSessionKey = "session"

// RefreshedTokenHeader carries a re-signed token back to bearer clients.
const RefreshedTokenHeader = "X-Session-Token"

// DefaultPublicPaths are reachable without a session. Entries ending in
// "/*" match every path below the prefix.
var DefaultPublicPaths = []string{
	"/login",
	"/api/v1/auth/login",
	"/static/*",
	"/health",
	"/ready",
	"/metrics",
	"/docs/*",
}

// SessionAuthority hydrates and refreshes session tokens.
type SessionAuthority interface {
	Hydrate(raw string) (*models.Session, error)
	NeedsRefresh(session *models.Session) bool
	RefreshSession(ctx context.Context, session *models.Session) (string, time.Time, error)
}

// GuardConfig tunes the route guard.
type GuardConfig struct {
	PublicPaths  []string
	CookieName   string
	SecureCookie bool
	LoginPath    string
	APIPrefix    string
	Logger       *zap.Logger
}

// Guard admits allow-listed paths and requires a valid session everywhere
// else. Tokens are read from the Authorization header first, then from the
// session cookie. API requests without a session get 401 JSON, page loads
// are redirected to the login page.
func Guard(auth SessionAuthority, cfg GuardConfig) gin.HandlerFunc {
	if cfg.PublicPaths == nil {
		cfg.PublicPaths = DefaultPublicPaths
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cookies := SessionCookie{Name: cfg.CookieName, Secure: cfg.SecureCookie}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if IsPublicPath(cfg.PublicPaths, path) {
			c.Next()
			return
		}

		raw, fromCookie := sessionToken(c, cookies.name())
		if raw == "" {
			deny(c, cfg, "")
			return
		}

		session, err := auth.Hydrate(raw)
		if err != nil || session.IsError() {
			if fromCookie {
				cookies.Clear(c)
			}
			marker := ""
			if session != nil {
				marker = session.Error
			}
			deny(c, cfg, marker)
			return
		}

		if auth.NeedsRefresh(session) {
			token, expiresAt, err := auth.RefreshSession(c.Request.Context(), session)
			if err != nil {
				cfg.Logger.Warn("session refresh failed", zap.String("user_id", session.User.ID), zap.Error(err))
			} else if refreshed, err := auth.Hydrate(token); err == nil {
				cookies.Set(c, token, expiresAt)
				c.Header(RefreshedTokenHeader, token)
				if refreshed.IsError() {
					deny(c, cfg, refreshed.Error)
					return
				}
				session = refreshed
			}
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// CurrentSession returns the session the guard attached to c.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*models.Session)
	if !ok || !session.Authenticated() {
		return nil, false
	}
	return session, true
}

// IsPublicPath reports whether path matches one of patterns.
func IsPublicPath(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == prefix || strings.HasPrefix(path, prefix+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}

func sessionToken(c *gin.Context, cookieName string) (string, bool) {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		if token := strings.TrimSpace(parts[1]); token != "" {
			return token, false
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

func deny(c *gin.Context, cfg GuardConfig, marker string) {
	if strings.HasPrefix(c.Request.URL.Path, cfg.APIPrefix) {
		err := appErrors.ErrUnauthorized
		if marker != "" {
			err = appErrors.Clone(appErrors.ErrUnauthorized, "session error: "+marker)
		}
		response.Abort(c, err)
		return
	}
	target := cfg.LoginPath
	if marker != "" {
		target += "?error=" + url.QueryEscape(marker)
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}
