package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

// RequireRoles admits sessions whose role is one of roles. It must run after
// Guard.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		session, ok := CurrentSession(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[session.User.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			return
		}
		c.Next()
	}
}
