package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit entry after each successful request. Failed
// requests and recorder errors are ignored.
func Audit(repo AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := &models.AuditLog{
			Action:    action,
			Resource:  resource,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		}
		if session, ok := CurrentSession(c); ok {
			if id, ok := models.ParseID(session.User.ID); ok {
				entry.UserID = &id
			}
		}
		if id := c.Param("id"); id != "" {
			entry.ResourceID = &id
		} else if created, ok := c.Get(ContextCreatedIDKey); ok {
			if id, ok := created.(string); ok {
				entry.ResourceID = &id
			}
		}

		entry.Payload, _ = json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		_ = repo.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry)
	}
}

// ContextCreatedIDKey lets a create handler expose the new row id to Audit.
const ContextCreatedIDKey = "created_id"
