package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
)

type recordingAudit struct {
	entries []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, log)
	return nil
}

func TestAuditRecordsSuccessfulWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &recordingAudit{}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextSessionKey, &models.Session{User: models.Identity{ID: "5", Role: models.RoleTeacher}})
	})
	r.PUT("/students/:id", Audit(repo, models.AuditActionUpdate, "students"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/students/:id", Audit(repo, models.AuditActionDelete, "students"), func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/students/9", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/students/9", nil))

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, models.AuditActionUpdate, entry.Action)
	assert.Equal(t, "9", *entry.ResourceID)
	assert.Equal(t, int64(5), *entry.UserID)
	assert.Contains(t, string(entry.Payload), "/students/:id")
}
