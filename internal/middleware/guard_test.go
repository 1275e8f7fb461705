package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
)

type fakeAuthority struct {
	sessions     map[string]*models.Session
	refresh      bool
	refreshToken string
	refreshErr   error
	refreshed    int
}

func (f *fakeAuthority) Hydrate(raw string) (*models.Session, error) {
	if s, ok := f.sessions[raw]; ok {
		return s, nil
	}
	return nil, errors.New("invalid token")
}

func (f *fakeAuthority) NeedsRefresh(session *models.Session) bool {
	return f.refresh
}

func (f *fakeAuthority) RefreshSession(ctx context.Context, session *models.Session) (string, time.Time, error) {
	f.refreshed++
	return f.refreshToken, time.Now().Add(time.Hour), f.refreshErr
}

func newGuardedRouter(auth SessionAuthority) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Guard(auth, GuardConfig{CookieName: "edutrack_session"}))
	ok := func(c *gin.Context) {
		if session, found := CurrentSession(c); found {
			c.String(http.StatusOK, session.User.Username)
			return
		}
		c.String(http.StatusOK, "public")
	}
	for _, path := range []string{"/login", "/api/v1/auth/login", "/static/css/app.css", "/health", "/ready", "/metrics", "/docs/index.html", "/", "/api/v1/students", "/loginx", "/statics"} {
		r.GET(path, ok)
	}
	return r
}

func validSessions() map[string]*models.Session {
	return map[string]*models.Session{
		"good":    {User: models.Identity{ID: "1", Username: "admin", Role: models.RoleAdmin}},
		"errored": {Error: "AccountUnavailable"},
	}
}

func TestGuardAdmitsExactlyTheAllowList(t *testing.T) {
	r := newGuardedRouter(&fakeAuthority{sessions: validSessions()})

	for _, path := range []string{"/login", "/api/v1/auth/login", "/static/css/app.css", "/health", "/ready", "/metrics", "/docs/index.html"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	for _, path := range []string{"/", "/loginx", "/statics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}

func TestGuardAPIWithoutSessionIs401(t *testing.T) {
	r := newGuardedRouter(&fakeAuthority{sessions: validSessions()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/students", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestGuardAcceptsBearerAndCookie(t *testing.T) {
	r := newGuardedRouter(&fakeAuthority{sessions: validSessions()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "edutrack_session", Value: "good"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuardBearerTakesPrecedence(t *testing.T) {
	r := newGuardedRouter(&fakeAuthority{sessions: validSessions()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer forged")
	req.AddCookie(&http.Cookie{Name: "edutrack_session", Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardErrorSessionRedirectsWithMarker(t *testing.T) {
	r := newGuardedRouter(&fakeAuthority{sessions: validSessions()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "edutrack_session", Value: "errored"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=AccountUnavailable", w.Header().Get("Location"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "edutrack_session=;")
}

func TestGuardRefreshesStaleSession(t *testing.T) {
	sessions := validSessions()
	sessions["fresh"] = &models.Session{User: models.Identity{ID: "1", Username: "renamed", Role: models.RoleAdmin}}
	auth := &fakeAuthority{sessions: sessions, refresh: true, refreshToken: "fresh"}
	r := newGuardedRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.AddCookie(&http.Cookie{Name: "edutrack_session", Value: "good"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed", w.Body.String())
	assert.Equal(t, "fresh", w.Header().Get(RefreshedTokenHeader))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "edutrack_session=fresh")
	assert.Equal(t, 1, auth.refreshed)
}

func TestGuardRefreshToErrorDenies(t *testing.T) {
	auth := &fakeAuthority{sessions: validSessions(), refresh: true, refreshToken: "errored"}
	r := newGuardedRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AccountUnavailable")
}

func TestGuardRefreshFailureKeepsSession(t *testing.T) {
	auth := &fakeAuthority{sessions: validSessions(), refresh: true, refreshErr: errors.New("db down")}
	r := newGuardedRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIsPublicPath(t *testing.T) {
	assert.True(t, IsPublicPath(DefaultPublicPaths, "/static"))
	assert.True(t, IsPublicPath(DefaultPublicPaths, "/docs/swagger.json"))
	assert.False(t, IsPublicPath(DefaultPublicPaths, "/api/v1/auth/logout"))
	assert.False(t, IsPublicPath(DefaultPublicPaths, "/healthz"))
}
