package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the embedded page templates.
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// loginErrors maps redirect markers to the text shown on the login form.
var loginErrors = map[string]string{
	"invalid_credentials": "Invalid username or password.",
	"unavailable":         "Sign-in is currently unavailable.",
	"missing_fields":      "Username and password are required.",
	"session_expired":     "Your session has expired. Please sign in again.",
}

type pageAuthenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, session *models.Session, ip, userAgent string)
}

type loginView struct {
	Title    string
	Error    string
	Username string
}

type dashboardView struct {
	Title string
	User  models.Identity
	Stats *models.DashboardStats
	Error string
}

// PageHandler renders the login and dashboard pages.
type PageHandler struct {
	auth      pageAuthenticator
	dashboard dashboardService
	cookie    middleware.SessionCookie
	templates *template.Template
	logger    *zap.Logger
}

// NewPageHandler constructs PageHandler.
func NewPageHandler(auth pageAuthenticator, dashboard dashboardService, cookie middleware.SessionCookie, templates *template.Template, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{auth: auth, dashboard: dashboard, cookie: cookie, templates: templates, logger: logger}
}

// LoginForm renders the sign-in form. A known error marker in the query is
// shown above the form.
func (h *PageHandler) LoginForm(c *gin.Context) {
	view := loginView{Title: "Sign in", Username: c.Query("username")}
	if marker := c.Query("error"); marker != "" {
		view.Error = loginMessage(marker)
	}
	h.render(c, http.StatusOK, "login", view)
}

// Login handles the form post and redirects to the dashboard or back to the
// form with an error marker.
func (h *PageHandler) Login(c *gin.Context) {
	req := models.LoginRequest{
		Username:  strings.TrimSpace(c.PostForm("username")),
		Password:  c.PostForm("password"),
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		query := url.Values{"error": {loginMarker(err)}}
		if req.Username != "" {
			query.Set("username", req.Username)
		}
		c.Redirect(http.StatusFound, "/login?"+query.Encode())
		return
	}
	h.cookie.Set(c, res.Token, res.ExpiresAt)
	c.Redirect(http.StatusFound, "/")
}

// Dashboard renders the landing page for a signed-in user.
func (h *PageHandler) Dashboard(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	view := dashboardView{Title: "Dashboard", User: session.User}
	stats, _, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		h.logger.Warn("dashboard stats unavailable", zap.Error(err))
		view.Error = "Statistics are temporarily unavailable."
	} else {
		view.Stats = stats
	}
	h.render(c, http.StatusOK, "dashboard", view)
}

// Logout ends the session and returns to the sign-in form.
func (h *PageHandler) Logout(c *gin.Context) {
	if session, ok := middleware.CurrentSession(c); ok {
		h.auth.Logout(c.Request.Context(), session, c.ClientIP(), c.GetHeader("User-Agent"))
	}
	h.cookie.Clear(c)
	c.Redirect(http.StatusFound, "/login")
}

func (h *PageHandler) render(c *gin.Context, status int, name string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(status)
	if err := h.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
	}
}

func loginMarker(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrValidation):
		return "missing_fields"
	case errors.Is(err, appErrors.ErrAuthUnavailable):
		return "unavailable"
	default:
		return "invalid_credentials"
	}
}

func loginMessage(marker string) string {
	if msg, ok := loginErrors[marker]; ok {
		return msg
	}
	return "Please sign in again."
}
