package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, session *models.Session, ip, userAgent string)
	Me(ctx context.Context, session *models.Session) (*models.User, error)
	ChangePassword(ctx context.Context, session *models.Session, req models.ChangePasswordRequest) error
}

type pictureLinker interface {
	PictureLink(owner, name string) (*service.PictureLink, error)
}

// MeResponse describes the current account.
type MeResponse struct {
	User      *models.User         `json:"user"`
	Role      models.UserRole      `json:"role"`
	ExpiresAt time.Time            `json:"expires_at"`
	Picture   *service.PictureLink `json:"picture,omitempty"`
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service  authService
	pictures pictureLinker
	cookie   middleware.SessionCookie
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, pictures pictureLinker, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{service: svc, pictures: pictures, cookie: cookie}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username or e-mail and password. Sets the session cookie.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.cookie.Set(c, res.Token, res.ExpiresAt)
	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Clears the session cookie.
// @Tags Authentication
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if session, ok := middleware.CurrentSession(c); ok {
		h.service.Logout(c.Request.Context(), session, c.ClientIP(), c.GetHeader("User-Agent"))
	}
	h.cookie.Clear(c)
	response.NoContent(c)
}

// Me godoc
// @Summary Current account
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}

	res := MeResponse{User: user, Role: user.Role, ExpiresAt: session.ExpiresAt}
	if h.pictures != nil && user.ProfilePicture != nil && *user.ProfilePicture != "" {
		if link, err := h.pictures.PictureLink(session.User.ID, *user.ProfilePicture); err == nil {
			res.Picture = link
		}
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description Change password for current user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ChangePasswordRequest true "Change password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), session, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
