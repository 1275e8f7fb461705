package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

// toaster publishes UI notifications.
type toaster interface {
	Notify(userID string, level models.ToastLevel, resource, message string)
}

// requireSession re-checks the session attached by the guard and writes 401
// when it is missing.
func requireSession(c *gin.Context) (*models.Session, bool) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return session, true
}

func idParam(c *gin.Context) (int64, bool) {
	id, ok := models.ParseID(c.Param("id"))
	if !ok || id <= 0 {
		response.Error(c, appErrors.Validation("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return false
	}
	return true
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

// int64Query parses an optional positive integer query parameter.
func int64Query(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, ok := models.ParseID(raw)
	if !ok || v <= 0 {
		response.Error(c, appErrors.Validation(name+" must be a positive integer"))
		return nil, false
	}
	return &v, true
}

func markCreated(c *gin.Context, id int64) {
	c.Set(middleware.ContextCreatedIDKey, strconv.FormatInt(id, 10))
}

func sendToast(c *gin.Context, t toaster, session *models.Session, level models.ToastLevel, resource, message string) {
	if t == nil || session == nil {
		return
	}
	t.Notify(session.User.ID, level, resource, message)
}

// writeResult notifies the outcome of a mutation and reports whether it
// succeeded. On failure the error response is written.
func writeResult(c *gin.Context, t toaster, session *models.Session, resource, success string, err error) bool {
	if err != nil {
		sendToast(c, t, session, models.ToastError, resource, appErrors.FromError(err).Message)
		response.Error(c, err)
		return false
	}
	sendToast(c, t, session, models.ToastSuccess, resource, success)
	return true
}
