package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/service"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

type fakeAuthService struct {
	loginReq   models.LoginRequest
	loginErr   error
	loggedOut  int
	user       *models.User
	changeErr  error
	changedFor string
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{
		Token:     "signed-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		User:      models.Identity{ID: "1", Username: req.Username, Role: models.RoleAdmin},
	}, nil
}

func (f *fakeAuthService) Logout(context.Context, *models.Session, string, string) {
	f.loggedOut++
}

func (f *fakeAuthService) Me(context.Context, *models.Session) (*models.User, error) {
	return f.user, nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, session *models.Session, _ models.ChangePasswordRequest) error {
	f.changedFor = session.User.ID
	return f.changeErr
}

type fakePictureLinker struct{}

func (fakePictureLinker) PictureLink(owner, name string) (*service.PictureLink, error) {
	return &service.PictureLink{URL: service.PicturePathPrefix + owner + "-" + name}, nil
}

var testCookie = middleware.SessionCookie{Name: "edutrack_session"}

func TestAuthHandlerLoginSetsCookie(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, nil, testCookie)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "password"})
	c.Request.Header.Set("User-Agent", "tests")

	h.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", svc.loginReq.Username)
	assert.Equal(t, "tests", svc.loginReq.UserAgent)
	cookie := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, "edutrack_session=signed-token"))
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "SameSite=Lax")
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{loginErr: appErrors.ErrInvalidCredentials}, nil, testCookie)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "wrong"})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, rec).Error.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestAuthHandlerLoginUnavailable(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{loginErr: appErrors.ErrAuthUnavailable}, nil, testCookie)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "password"})

	h.Login(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthHandlerLogoutClearsCookie(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, nil, testCookie)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/logout", nil)
	withSession(c, testSession("1", models.RoleAdmin))

	h.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, svc.loggedOut)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestAuthHandlerMeIncludesPictureLink(t *testing.T) {
	picture := "abc.png"
	svc := &fakeAuthService{user: &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin, ProfilePicture: &picture}}
	h := NewAuthHandler(svc, fakePictureLinker{}, testCookie)
	c, rec := newTestContext(http.MethodGet, "/api/v1/auth/me", nil)
	withSession(c, testSession("1", models.RoleAdmin))

	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var me MeResponse
	decodeData(t, rec, &me)
	assert.Equal(t, models.RoleAdmin, me.Role)
	require.NotNil(t, me.Picture)
	assert.Equal(t, service.PicturePathPrefix+"1-abc.png", me.Picture.URL)
}

func TestAuthHandlerMeRejectsErrorSession(t *testing.T) {
	h := NewAuthHandler(&fakeAuthService{}, nil, testCookie)
	c, rec := newTestContext(http.MethodGet, "/api/v1/auth/me", nil)
	withSession(c, &models.Session{Error: "session_expired"})

	h.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerChangePassword(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandler(svc, nil, testCookie)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/password", map[string]string{"old_password": "password", "new_password": "correct horse"})
	withSession(c, testSession("5", models.RoleTeacher))

	h.ChangePassword(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "5", svc.changedFor)
}
