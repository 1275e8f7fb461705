package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/service"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

// PictureFormField is the multipart field carrying an uploaded picture.
const PictureFormField = "picture"

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	UpdatePicture(ctx context.Context, session *models.Session, r io.Reader) (*service.PictureLink, error)
	OpenPicture(token string) (*os.File, error)
}

// UserHandler handles account listing and profile pictures.
type UserHandler struct {
	service userService
	toasts  toaster
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService, toasts toaster) *UserHandler {
	return &UserHandler{service: svc, toasts: toasts}
}

// List godoc
// @Summary List users
// @Description List users with pagination and filtering
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param role query string false "Role filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	filter.Page, filter.PageSize = pageQuery(c)
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// UploadPicture godoc
// @Summary Replace the current user's profile picture
// @Tags Users
// @Accept multipart/form-data
// @Produce json
// @Param picture formData file true "Image (png, jpeg, gif or webp)"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /users/me/picture [post]
func (h *UserHandler) UploadPicture(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	header, err := c.FormFile(PictureFormField)
	if err != nil {
		response.Error(c, appErrors.Validation("picture file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Validation("picture could not be read"))
		return
	}
	defer file.Close()

	link, err := h.service.UpdatePicture(c.Request.Context(), session, file)
	if !writeResult(c, h.toasts, session, "users", "Profile picture updated", err) {
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Picture serves a stored picture addressed by a signed token.
func (h *UserHandler) Picture(c *gin.Context) {
	file, err := h.service.OpenPicture(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read picture"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), file)
}
