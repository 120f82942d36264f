package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsletter-backend/internal/shared"
)

// AdminMiddleware checks if the caller carries the admin role.
// Guards forceRelease, audit listing and media deletion.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get(shared.CtxRole)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: admin role required",
			})
			c.Abort()
			return
		}

		role, ok := roleInterface.(string)
		if !ok || role != shared.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: admin role required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// EditorMiddleware checks if the caller may mutate content (editor or admin).
func EditorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(shared.CtxRole)
		if role != shared.RoleEditor && role != shared.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Access denied: editor role required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
