package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultSessionCookie names the cookie carrying the session token.
const DefaultSessionCookie = "edutrack_session"

// SessionCookie writes and clears the session cookie.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set stores token until expiresAt. The cookie is HttpOnly and SameSite=Lax.
func (s SessionCookie) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name(), token, maxAge, "/", "", s.Secure, true)
}

// Clear expires the session cookie.
func (s SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.name(), "", -1, "/", "", s.Secure, true)
}

func (s SessionCookie) name() string {
	if s.Name == "" {
		return DefaultSessionCookie
	}
	return s.Name
}
